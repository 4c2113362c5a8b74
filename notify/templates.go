package notify

import "fmt"

const (
	resetSubject   = "Password Reset Request - eCommerce AI Platform"
	welcomeSubject = "Welcome to eCommerce AI Platform"
)

func resetHTMLBody(name, link string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .button { display: inline-block; padding: 12px 24px; background-color: #007bff;
                 color: white; text-decoration: none; border-radius: 4px; margin: 20px 0; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #ddd;
                 font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <h2>Password Reset Request</h2>
        <p>Hello %s,</p>
        <p>We received a request to reset your password for your eCommerce AI Platform account.</p>
        <p>Click the button below to reset your password:</p>
        <a href="%s" class="button">Reset Password</a>
        <p>Or copy and paste this link into your browser:</p>
        <p><a href="%s">%s</a></p>
        <p>This link will expire in 1 hour.</p>
        <p>If you didn't request a password reset, please ignore this email or contact support if you have concerns.</p>
        <div class="footer">
            <p>This is an automated email from eCommerce AI Platform. Please do not reply.</p>
        </div>
    </div>
</body>
</html>
`, name, link, link, link)
}

func resetTextBody(name, link string) string {
	return fmt.Sprintf(`Password Reset Request

Hello %s,

We received a request to reset your password for your eCommerce AI Platform account.

Click the link below to reset your password:
%s

This link will expire in 1 hour.

If you didn't request a password reset, please ignore this email or contact support if you have concerns.

---
This is an automated email from eCommerce AI Platform. Please do not reply.
`, name, link)
}

func welcomeHTMLBody(name string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #ddd;
                 font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <h2>Welcome to eCommerce AI Platform!</h2>
        <p>Hello %s,</p>
        <p>Thank you for registering with eCommerce AI Platform.</p>
        <p>Get started by logging in to your account.</p>
        <div class="footer">
            <p>This is an automated email from eCommerce AI Platform. Please do not reply.</p>
        </div>
    </div>
</body>
</html>
`, name)
}

func welcomeTextBody(name string) string {
	return fmt.Sprintf(`Welcome to eCommerce AI Platform!

Hello %s,

Thank you for registering with eCommerce AI Platform.

Get started by logging in to your account.

---
This is an automated email from eCommerce AI Platform. Please do not reply.
`, name)
}
