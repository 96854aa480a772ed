package notify

// Canned paragraphs appended to composed emails. These used to live as
// text files next to the data tables; keeping them in the binary means a
// fresh install never sends a half-written email.

const textPurchase = `Your punchcard is good for ten games of Underwater Hockey.
We'll punch it automatically each time you play and email you the updated balance.
`

const textBuyNow = `

Your punchcard is now full. To keep playing, please purchase your next punchcard
before the next game, or bring payment to the pool.
`

const textNoBuyRequired = `

Good news: you already have your next punchcard waiting, so there is nothing to do.
We'll start punching it at your next game.
`

const textPastDue = `Please purchase a punchcard at your earliest convenience so we can apply
these games to it. If you believe this is in error, just reply to this email.
`

const textStarUse = `Signing up early helps us plan the game, so early birds earn stars.
Twenty stars buys a free game. Thanks for planning ahead!
`

const textInvite = `We run a punchcard program for Underwater Hockey: one card covers ten games,
and signing up early earns stars toward free games. Reply to this email and
we'll set you up.
`
