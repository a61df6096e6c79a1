/*
Package membership implements the channel membership oracle.

The oracle answers a single question: is user X currently a member of the
gated channel? TelegramChecker asks the Telegram Bot API (getChatMember) with
a bounded timeout; FailClosed wraps any Checker so that transport or API
failures read as "not a member" instead of propagating. The reconciliation
loop's periodicity is the retry mechanism, so no retries happen here.
*/
package membership
