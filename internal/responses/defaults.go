package responses

// Built-in reply lists. Every category has at least one entry; NewTable relies on it.
// Placeholders: {project} {ticker} {contract_address} {pump_link} {website} {telegram} {twitter}.
// Welcome entries may also carry {name}, filled in by the caller.
var defaultLists = [numCategories][]string{
	Hype: {
		"Let's go, {ticker} army! Time to make some noise! 🚀",
		"Who's feeling bullish today?! 🔥",
		"NPEPEVERSE is unstoppable! 🐸💚",
		"Keep that energy high! We're just getting started! ✨",
		"Diamond hands, where you at?! 💎🙌",
		"This is more than a coin, it's a movement!",
		"To the moon and beyond! LFG! 🌕",
		"Hype train is leaving the station! All aboard! 🚂",
		"Feel the power of the meme! 💪",
		"We're writing history, one block at a time! 📜",
		"Don't just HODL, be proud! We are {ticker}! 🐸",
		"The vibes are immaculate today, frens!",
		"Let's paint that chart green! 💚",
		"Remember why you're here. For the glory! 🔥",
		"This community is the best in crypto, period.",
		"Let them doubt. We know what we hold. 💎",
		"Ready for the next leg up? I know I am! 🚀",
		"Stay hyped, stay based!",
		"Every buy, every meme, every post matters! Keep it up! 💪",
		"{ticker} is the future of memes! 🐸",
		"Can you feel it? That's the feeling of inevitability.",
		"Let's show them what a real community looks like! 💚",
		"Who's ready to shock the world? ✨",
		"HODL the line, frens! Victory is near! ⚔️",
		"The bigger the base, the higher in space! 🚀",
		"Let's get it! No sleep 'til the moon! 🌕",
		"Don't let anyone shake you out. Diamond hands win. 💎",
		"The energy in here is electric! 🔥",
		"We're not just riding the wave, we ARE the wave! 🌊",
		"My ribbits are tingling... something is coming.",
		"Keep shilling, keep winning.",
		"Every dip is a gift. 🎁",
		"WAGMI is not a meme, it's a promise.",
		"Building the future, one green candle at a time.",
		"Load up your bags, frens. The rocket is boarding.",
		"In a world of dogs and cats, be a frog. 🐸",
		"Stay calm and HODL on. Panicking is for paper hands.",
		"NPEPEVERSE > Multiverse.",
		"The community is our utility. And it's priceless.",
		"Let your diamond hands shine bright today. ✨",
		"We are so back.",
		"It's {ticker} season, frens.",
		"I've seen the future, and it's very, very green.",
	},
	MorningGreeting: {
		"☀️ GM frens! A new day, a new chance to ribbit. Let's make it green! 🐸",
		"Good morning, {ticker} army! Coffee in one hand, diamond hands in the other. ☕💎",
		"Rise and shine, frens! The frog never sleeps, but it does say GM. 🐸☀️",
		"GM GM! Who's ready to paint the chart green today? 💚",
	},
	AfternoonGreeting: {
		"🌤️ Afternoon check-in, frens! Still HODLing strong? 💎",
		"Good afternoon, {ticker} fam! Halfway through the day, fully through the hype. 🔥",
		"Afternoon vibes: bullish. Frog vibes: maximum. 🐸",
	},
	EveningGreeting: {
		"🌆 Good evening, frens! How did the bags treat you today? 💚",
		"Evening, {ticker} army! Kick back, relax, and keep those diamond hands warm. 💎",
		"The sun goes down, the hype stays up. Good evening, frens! 🐸🌇",
	},
	NightGreeting: {
		"🌙 GN frens! Dream of green candles. 🐸💤",
		"Good night, {ticker} army. The frog keeps watch while you sleep. 🌕",
		"Time to rest those diamond hands. GN, see you on the moon! 🚀",
	},
	WeekendGreeting: {
		"🎉 Weekend mode: ON! No charts can stop this community. {ticker} forever! 🐸",
		"Happy weekend, frens! Touch grass, then come back and ribbit. 🌿🐸",
		"Weekend vibes are immaculate. Who's shilling {ticker} at the BBQ? 🍔🔥",
	},
	Wisdom: {
		"🐸 Frog wisdom: the patient frog catches the biggest fly.",
		"🐸 Frog wisdom: paper hands fold, diamond hands hold.",
		"🐸 Frog wisdom: never invest more than you can meme about.",
		"🐸 Frog wisdom: a community that laughs together, HODLs together.",
		"🐸 Frog wisdom: the pond looks calm until the frog jumps.",
	},
	ContractAddress: {
		"Here is the contract address, fren:\n\n`{contract_address}`",
		"🔗 *{ticker} Contract Address:*\n`{contract_address}`\n\nAlways double-check before you buy!",
	},
	HowToBuy: {
		"💰 You can buy *{ticker}* on Pump.fun! Hop in here: {pump_link} 🚀",
		"How to buy {ticker}:\n1. Get a Solana wallet (Phantom works great)\n2. Fund it with SOL\n3. Go to {pump_link}\n4. Swap and welcome to the NPEPEVERSE! 🐸",
	},
	WhoAreYou: {
		"I'm the official {project} bot! 🐸 Half frog, half hype machine, fully on-chain energy.",
		"Who am I? Just a frog who drank too much coffee and now guards the {ticker} community. ☕🐸",
	},
	WhoIsOwner: {
		"{project} is community-driven, fren! The devs build, but the frogs run this pond. 🐸",
		"The team keeps building in the background. Check {telegram} for official announcements! 💚",
	},
	Collab: {
		"🤝 Collab or partnership ideas? Reach out to the team through {telegram} and let's build together!",
		"Love the energy! For collabs, drop a message to the admins in {telegram}. 🐸",
	},
	Links: {
		"🌐 Website: {website}\n✈️ Telegram: {telegram}\n🐦 Twitter: {twitter}\n💰 Buy: {pump_link}",
	},
	Greeting: {
		"👋 Hey fren! Welcome to the {ticker} community! How can I help you today?",
		"Ribbit! 🐸 Hey there, fren!",
		"GM or GN, whatever time it is, welcome fren! 💚",
	},
	Moon: {
		"🌕🐸 Pepe is always on the way to the moon! Keep the hype alive! 🔥",
		"Wen moon? Soon, fren. HODL tight! 🚀",
	},
	Thanks: {
		"🐸 You're welcome, fren! Glad I could help.",
		"Anytime, fren! WAGMI 💚",
	},
	Welcome: {
		"🐸 Welcome to the NPEPEVERSE, {name}! Grab a seat on the lily pad. Type /start to see what I can do!",
		"A new frog has joined the pond! Welcome, {name}! 💚 Check the contract with /start.",
	},
	About: {
		"🚀 *{ticker}* is the new era of meme power!\nBorn from pure community hype on *Pump.fun*.\n\nNo utility, no roadmaps, just 100% meme energy. 🐸",
	},
	FinalFallback: {
		"🐸 My frog brain short-circuited, fren. Try asking again in a bit!",
		"Ribbit... the oracle is napping. Ask me again soon! 💤",
	},
	NoAIFallback: {
		"I'm not sure what you mean, fren. Try using one of the buttons below to navigate!",
	},
}
