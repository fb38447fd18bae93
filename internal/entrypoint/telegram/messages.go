package telegram

// User-facing texts. Rendered with Telegram HTML parse mode.
const (
	msgWelcome = "🆕 New Wallet\n\n" +
		"<b>Welcome to the TON wallet bot!</b>\n\n" +
		"To setup your wallet we will need you to choose a password\n" +
		"Send the password as a text message"

	msgLogin = "🔅 Login Required\n\n" +
		"<b>To protect your wallet we have logged you out</b>\n\n" +
		"Send your password as a text message"

	msgRepeatPassword = "Please send the password again:"

	msgPasswordsMismatch = "Passwords did not match.\nPlease choose a password:"

	msgWrongPassword = "Invalid Password!\nPlease enter your password:"

	// %s: balance
	msgMenu = "💰 My Wallet\n\nWallet balance: <code>%s</code> TON"

	// %s: unbounceable address
	msgDeposit = "➕ Deposit: TON\n\n" +
		"Use the address below to send TON to the Wallet bot address.\n" +
		"Network: <b>The Open Network - TON.</b>\n\n" +
		"<code>%s</code>\n\n" +
		"Funds will be credited within 2 minutes"

	msgSendAddress = "➡️ Transfer: TON\n\n" +
		"Send the TON wallet address in text message here."

	msgInvalidAddress = "🚫 Invalid Address\n\n" +
		"Send the TON wallet address in text message here."

	// %s, %s, %s: min, max, fee
	msgSendAmount = "➡️ Transfer: TON\n\n" +
		"Indicate the amount you’d like to transfer via text message\n\n" +
		"<i>Min</i>: %s TON\n" +
		"<i>Max</i>: %s TON\n\n" +
		"<i>Fee</i>: ~%s TON"

	msgInvalidAmount = "🚫 Invalid Amount\n\n" +
		"Indicate the amount you’d like to transfer via text message"

	msgInsufficientFunds = "🚫 Insufficient Funds\n\n" +
		"Indicate a smaller amount, the fee is reserved from the balance"

	// %s × 5: address, amount, fee, total, balance after
	msgSendConfirm = "➡️ Withdrawal confirmation: TON\n\n" +
		"<b>Address</b>: %s\n\n" +
		"<b>Amount</b>: %s TON\n" +
		"<b>Fee</b>: %s TON\n" +
		"<b>Total amount</b>: %s TON\n" +
		"<b>Balance after</b>: %s TON\n\n" +
		"Do you confirm this operation?"

	// %s × 4: address, amount, fee, total
	msgReceipt = "✅ Transaction receipt: TON\n\n" +
		"<b>Address:</b> %s\n" +
		"<b>Amount:</b> %s TON\n" +
		"<b>Fee:</b> %s TON\n\n" +
		"<b>Total:</b> %s TON"

	msgSettings = "⚙️ Settings"

	msgChooseLanguage = "Please, select a language"

	msgChooseCurrency = "Please, select a currency"

	msgInvalidLink = "⚠️ Invalid Link"

	msgInvalidAction = "⚠️ Invalid action"

	msgOperationFailed = "⚠️ The operation could not be completed, please try again"

	msgChequeGone = "⚠️ Transfer was redeemed or canceled"

	msgChequeUnderfunded = "⚠️ The sender does not have sufficient funds on his balance"

	// %s: amount
	msgChequeReceived = "✅ You’ve received: %s TON"

	// %s, %s: amount, claim link
	msgChequeOffer = "I’d like to send you %s TON.\n\n" +
		"Claim it here: %s"
)
