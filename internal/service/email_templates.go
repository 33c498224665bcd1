package service

import "fmt"

func unlockEmailTemplate(unlockURL, listTitle, appName string) (string, string) {
	subject := fmt.Sprintf("Your purchase: %s", listTitle)
	body := fmt.Sprintf(`Thanks for your purchase! Open this link to unlock "%s":
%s

This link expires in 10 minutes and can only be used once.

If the link has expired, you can request a new one from the list page using the email you paid with.

Best,
The %s Team`, listTitle, unlockURL, appName)

	return subject, body
}

func accessLinkEmailTemplate(accessURL, listTitle, appName string) (string, string) {
	subject := fmt.Sprintf("Your access link for %s", listTitle)
	body := fmt.Sprintf(`Here is your access link for "%s":
%s

This link expires in 1 hour.

If you didn't request this, you can safely ignore this email.

Best,
The %s Team`, listTitle, accessURL, appName)

	return subject, body
}
