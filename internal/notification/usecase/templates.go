package usecase

import "html/template"

var otpEmailTemplate = template.Must(template.New("otp_code").Parse(`
<html>
<body style="font-family: sans-serif; color: #1f2933;">
	<h2>Your login code</h2>
	<p>Use this code to finish signing in to {{.app_name}}:</p>
	<p style="font-size: 28px; font-weight: bold; letter-spacing: 6px;">{{.code}}</p>
	<p>The code expires in {{.expires_in_minutes}} minutes. If you did not try to sign in, you can ignore this email.</p>
</body>
</html>`))

var welcomeEmailTemplate = template.Must(template.New("welcome").Parse(`
<html>
<body style="font-family: sans-serif; color: #1f2933;">
	<h2>Welcome to {{.app_name}}, {{.full_name}}!</h2>
	<p>Your account is ready. Sign in to start tracking your leads.</p>
	<p><a href="{{.web_url}}">Open {{.app_name}}</a></p>
</body>
</html>`))
