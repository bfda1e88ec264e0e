package service

import (
	"fmt"
	"time"
)

func otpEmailTemplate(code string, expiry time.Duration, appName string) (string, string) {
	subject := "Your OTP Code"
	body := fmt.Sprintf(`Your login OTP is: %s

This code expires in %d minutes.

If you didn't request this, ignore this email.

Best,
The %s Team`, code, int(expiry.Minutes()), appName)

	return subject, body
}

func upgradeEmailTemplate(appName string) (string, string) {
	subject := fmt.Sprintf("Welcome to %s Pro", appName)
	body := fmt.Sprintf(`Your payment went through and your account is now on the Pro plan.

Pro signals are available on your dashboard right away.

Best,
The %s Team`, appName)

	return subject, body
}
