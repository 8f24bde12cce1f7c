// Package mailer delivers the verification and reset emails the engine
// produces. [Mailer] is the delivery interface; [SMTPClient] sends over
// plain SMTP, [NoOp] discards, and [ChannelMailer] captures messages for
// tests.
//
// # What this package must NOT do
//
//   - Compose message bodies. The engine renders subject and body; this
//     package only transports them.
//   - Import any other vigil package.
package mailer
