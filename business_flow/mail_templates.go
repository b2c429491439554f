package businessflow

import (
	"fmt"
	"html"
	"strings"
)

// Styled HTML shells for the two outbound emails. User-supplied fields are
// escaped before interpolation.

const emailShell = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; background-color: #f9f9f9; padding: 24px; border-radius: 8px;">
  <h2 style="color: #1a1a2e; margin-top: 0;">%s</h2>
  <div style="background-color: #ffffff; padding: 16px; border-radius: 6px; border: 1px solid #e0e0e0;">
%s
  </div>
  <p style="color: #888888; font-size: 12px; margin-bottom: 0;">Delivered by xmailer. This mailbox is not monitored.</p>
</div>`

// renderOwnerEmail builds the notification sent to the blink owner with the
// full formatted letter.
func renderOwnerEmail(creatorCodename string, params ActionParams, messageBody string) (subject, body string) {
	subject = fmt.Sprintf("New mail from %s", strings.TrimSpace(params.Codename))

	escapedBody := strings.ReplaceAll(html.EscapeString(messageBody), "\n", "<br>")
	inner := fmt.Sprintf(`    <p style="color: #444444;">You received a new paid mail.</p>
    <div style="white-space: normal; color: #1a1a2e; line-height: 1.6;">%s</div>
    <p style="color: #444444; margin-bottom: 0;">Reply directly to <a href="mailto:%s">%s</a>.</p>`,
		escapedBody,
		html.EscapeString(params.Email), html.EscapeString(params.Email))

	body = fmt.Sprintf(emailShell, fmt.Sprintf("Hello %s", html.EscapeString(creatorCodename)), inner)
	return subject, body
}

// renderConfirmationEmail builds the receipt sent back to the visitor.
func renderConfirmationEmail(creatorCodename string, params ActionParams) (subject, body string) {
	subject = fmt.Sprintf("Your mail to %s was delivered", creatorCodename)

	inner := fmt.Sprintf(`    <p style="color: #444444;">Hi %s,</p>
    <p style="color: #444444;">Your mail was delivered to %s. They can reply to you at %s.</p>
    <p style="color: #444444; margin-bottom: 0;">Thanks for using xmailer.</p>`,
		html.EscapeString(strings.TrimSpace(params.Codename)),
		html.EscapeString(creatorCodename),
		html.EscapeString(params.Email))

	body = fmt.Sprintf(emailShell, "Mail delivered", inner)
	return subject, body
}
