package auth

import (
	"fmt"
	"net/smtp"
	"net/url"
	"strings"

	"audioarchive/config"

	"github.com/google/uuid"
)

// AuthError is a sign-in link dispatch failure.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("failed to send sign-in link: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NewLoginToken mints a one-time login token. Two uuids back to back
// give 244 bits of randomness; the token is stored hashed and consumed
// on first use.
func NewLoginToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

// LoginLinkURL builds the verification URL carried by the email.
// redirectTo, when non-empty, is where the verifier sends the browser
// after the token exchange.
func LoginLinkURL(cfg *config.Config, token, redirectTo string) string {
	v := url.Values{}
	v.Set("token", token)
	if redirectTo != "" {
		v.Set("redirect", redirectTo)
	}
	return cfg.PublicBaseURL + "/api/auth/verify?" + v.Encode()
}

// SendLoginLink emails a sign-in link to the given address. Dispatch
// failures come back as *AuthError; nothing is retried.
func SendLoginLink(cfg *config.Config, email, link string) error {
	msg := strings.Join([]string{
		"From: " + cfg.SMTPFrom,
		"To: " + email,
		"Subject: Your sign-in link",
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Click the link below to sign in. It can be used once and expires in " +
			fmt.Sprintf("%d minutes.", cfg.LoginTokenTTL),
		"",
		link,
		"",
		"If you did not request this, you can ignore this email.",
	}, "\r\n")

	addr := cfg.SMTPHost + ":" + cfg.SMTPPort
	var a smtp.Auth
	if cfg.SMTPUser != "" {
		a = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)
	}

	if err := smtp.SendMail(addr, a, cfg.SMTPFrom, []string{email}, []byte(msg)); err != nil {
		return &AuthError{Err: err}
	}
	return nil
}
