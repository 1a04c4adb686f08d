package handlers

import (
	"fmt"
	"html"
)

// Delays for the success page: time before navigating to the app, then time
// before assuming navigation silently failed (e.g. sandboxed WebViews).
const (
	appRedirectDelayMs = 1000
	fallbackDelayMs    = 2000
)

const missingCodePage = `<!DOCTYPE html>
<html>
<head><title>Gmail Connection Failed - FetchIt</title></head>
<body style="font-family: sans-serif; padding: 40px; text-align: center;">
<h1 style="color: #EF4444;">Error</h1>
<p>No authorization code provided.</p>
</body>
</html>
`

// successPage confirms the link and sends the browser to redirectURL.
// redirectURL is built from query-escaped values only, so it is safe inside
// a single-quoted script string.
func successPage(redirectURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<title>Gmail Connected - FetchIt</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; display: flex; justify-content: center; align-items: center; min-height: 100vh; margin: 0; background: linear-gradient(135deg, #197dfd 0%%, #006FFD 100%%); }
.container { text-align: center; background: white; padding: 40px; border-radius: 16px; box-shadow: 0 10px 40px rgba(0,0,0,0.2); max-width: 320px; }
.success { color: #22C55E; font-size: 64px; margin-bottom: 20px; }
h1 { margin: 0 0 10px 0; font-size: 24px; color: #333; }
p { color: #666; margin: 10px 0; }
</style>
</head>
<body>
<div class="container">
<div class="success">&#10003;</div>
<h1>Gmail Connected!</h1>
<p>Returning to FetchIt app...</p>
</div>
<script>
setTimeout(function () {
  window.location.href = '%s';
  setTimeout(function () {
    document.querySelector('.container').innerHTML =
      '<div class="success">&#10003;</div>' +
      '<h1>Success!</h1>' +
      '<p>You can close this window and return to the app.</p>';
  }, %d);
}, %d);
</script>
</body>
</html>
`, redirectURL, fallbackDelayMs, appRedirectDelayMs)
}

// exchangeErrorPage reports a failed exchange. No token is ever included.
func exchangeErrorPage(message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>Gmail Connection Failed - FetchIt</title></head>
<body style="font-family: sans-serif; padding: 40px; text-align: center;">
<h1 style="color: #EF4444;">Error</h1>
<p>Failed to connect Gmail. Please try again.</p>
<p style="color: #666; font-size: 14px;">%s</p>
</body>
</html>
`, html.EscapeString(message))
}
