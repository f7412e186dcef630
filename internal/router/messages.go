package router

// User-facing message text.
const (
	msgAccessDenied    = "You are not the owner of this bot. Access denied."
	msgOwnerOnly       = "This command is for the owner only."
	msgInvalidEvent    = "Invalid request."
	msgInvalidData     = "Invalid action data."
	msgInvalidClientID = "Invalid user ID."
	msgStaleRequest    = "Request already processed or not found."
	msgUnknownCommand  = "Unknown command."
	msgInternal        = "Something went wrong. Please try again later."

	msgRequestQueued      = "Your signal request has been sent to the owner. Please wait for a decision."
	msgRequestDuplicate   = "You already have a pending signal request. Please wait for a decision."
	msgRequestUnreachable = "Could not reach the owner right now. Please try again later."
	msgRequestPrompt      = "Signal request from user %s. Is a trading signal available today?"
	msgButtonAvailable    = "Available"
	msgButtonUnavailable  = "Not available"

	msgNotConfirmed        = "Your payment access has not been confirmed yet. Use /request first."
	msgPaymentNotSet       = "Payment details are not available yet."
	msgPaymentMethodNotSet = "No payment method has been set yet."

	msgProofForward     = "Proof of payment from user %s:\n%s\n\nReply to this message to answer the user."
	msgProofForwarded   = "Your proof has been forwarded to the owner."
	msgProofUnreachable = "Could not forward your proof right now. Please try again later."

	msgAvailableSent     = "Signal available. Payment info has been sent to user %s."
	msgAvailableFailed   = "Failed to send payment info to user %s."
	msgAvailableNoPay    = "Signal available, but payment details have not been set by the owner."
	msgSetPaymentPrompt  = "Please set the payment details with /setpayment <text> to update the payment info."
	msgUnavailableClient = "Sorry, no trading signal is available today."
	msgUnavailableDone   = "No signal today. Notified %d user(s)."
	msgUnavailableFailed = "No signal today. Notified %d user(s); %d could not be reached."

	msgReplyNoTarget = "Reply directly to a forwarded proof message to answer a user."
	msgReplyEmpty    = "Reply text is empty."
	msgReplyUnknown  = "Not a recognized confirmation message."
	msgReplyForward  = "Reply from the owner:\n%s"
	msgReplySent     = "Reply sent to user %s."
	msgReplyFailed   = "Failed to send reply to user %s."

	msgPaymentUpdated     = "Payment details updated. Sent to %d of %d confirmed user(s)."
	msgPaymentSaveFailed  = "Failed to save the payment details."
	msgMethodUpdated      = "Payment method updated."
	msgSettingsReadFailed = "Could not read payment details."

	msgRequestExpired = "Your signal request expired without a decision. Send /request to ask again."
	msgProofExpired   = "Your proof was not answered in time. Please submit it again with /proof."

	msgWelcome = "Welcome. Available commands:"
)
