package api

import (
	_ "embed"
	"net/http"
	"strings"
)

//go:embed openapi.yaml
var openapiSpec string

// SpecHandler serves the embedded OpenAPI document. The document carries an
// {oidcIssuer} placeholder so it does not pin a tenant; it is substituted
// here.
func SpecHandler(issuer string) http.HandlerFunc {
	spec := strings.ReplaceAll(openapiSpec, "{oidcIssuer}", strings.TrimSuffix(issuer, "/"))
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write([]byte(spec))
	}
}

// SwaggerHandler serves a Swagger UI page over the OpenAPI document, set up for the
// authorization code flow with PKCE against the configured issuer.
func SwaggerHandler(issuer, clientID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
			scheme = fwd
		}

		html := strings.NewReplacer(
			"${SPEC_URL}", "/openapi.yaml",
			"${OAUTH2_REDIRECT}", scheme+"://"+r.Host+"/docs/oauth2-redirect.html",
			"${ISSUER}", issuer,
			"${CLIENT_ID}", clientID,
		).Replace(swaggerHTML)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	}
}

// OAuthRedirectHandler serves the OAuth2 redirect page used by Swagger UI
func OAuthRedirectHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(oauthRedirectHTML))
}

const swaggerHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <title>Automation Console API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist/swagger-ui-bundle.js"></script>
  <script>
  window.onload = function() {
    const ui = SwaggerUIBundle({
      url: "${SPEC_URL}",
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: "BaseLayout",
      oauth2RedirectUrl: "${OAUTH2_REDIRECT}",
    });
    window.ui = ui;

    ui.initOAuth({
      clientId: "${CLIENT_ID}",
      usePkceWithAuthorizationCodeGrant: true,
      additionalQueryStringParams: { issuer: "${ISSUER}" },
    });

    const tokenBox = document.createElement('textarea');
    tokenBox.readOnly = true;
    tokenBox.rows = 3;
    tokenBox.style.width = '100%';
    tokenBox.placeholder = 'Bearer token will appear here after authorization';
    const container = document.createElement('div');
    container.style.margin = '10px 0';
    container.appendChild(tokenBox);
    document.body.insertBefore(container, document.getElementById('swagger-ui'));

    function updateToken() {
      try {
        const auth = ui.getState().getIn(['auth', 'authorized']);
        if (!auth) return;
        auth.forEach(function(scheme) {
          const token = scheme.getIn(['token', 'access_token']);
          if (token) tokenBox.value = token;
        });
      } catch (e) {
        // not ready yet
      }
    }
    const interval = setInterval(updateToken, 1000);
    setTimeout(() => clearInterval(interval), 60000);
  }
  </script>
</body>
</html>`

const oauthRedirectHTML = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"/><title>OAuth2 Redirect</title></head>
<body>
<script>
if (window.opener && window.opener.swaggerUIRedirectCallback) {
  window.opener.swaggerUIRedirectCallback(window.location.href);
}
</script>
</body>
</html>`
