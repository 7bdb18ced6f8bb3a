package handoff

import (
	"bytes"
	"html/template"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// fallbackDelayMillis is how long the page waits on the deep link before
// falling back to the loopback URL or closing the tab.
const fallbackDelayMillis = 1500

var bounceTemplate = template.Must(template.New("bounce").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <title>{{.AppName}}</title>
    <meta http-equiv="refresh" content="0;url={{.DeepLinkURL}}" />
</head>
<body>
    <p>Redirecting back to {{.AppName}}…</p>
    {{if .Loopback}}<a href="{{.LoopbackURL}}">Return to {{.AppName}}</a>{{else}}<p>You can close this tab.</p>{{end}}
    <script>
        const target = {{.DeepLink}};
        try {
            window.location.replace(target);
        } catch (err) {
            console.error("Failed to redirect to app", err);
        }
        setTimeout(function() {
            {{if .Loopback}}window.location.href = {{.Loopback}};{{else}}window.close();{{end}}
        }, {{.FallbackDelayMillis}});
    </script>
</body>
</html>
`))

type bouncePage struct {
	AppName             string
	DeepLink            string
	DeepLinkURL         template.URL
	Loopback            string
	LoopbackURL         template.URL
	FallbackDelayMillis int
}

// withHandoff appends the handoff query parameter to base.
func withHandoff(base, handoffID string) string {
	connector := "?"
	if strings.Contains(base, "?") {
		connector = "&"
	}
	return base + connector + "handoff=" + url.QueryEscape(handoffID)
}

// renderBouncePage builds the page returned from the provider callback. It
// first tries the app's deep link and, since custom scheme handlers are not
// registered everywhere, falls back to the loopback URL when one is set.
func renderBouncePage(appName, deepLinkBase, loopbackBase, handoffID string) (string, error) {
	page := bouncePage{
		AppName:             appName,
		DeepLink:            withHandoff(deepLinkBase, handoffID),
		FallbackDelayMillis: fallbackDelayMillis,
	}
	// both bases are configured by the operator, not by the request
	page.DeepLinkURL = template.URL(page.DeepLink)
	if strings.TrimSpace(loopbackBase) != "" {
		page.Loopback = withHandoff(loopbackBase, handoffID)
		page.LoopbackURL = template.URL(page.Loopback)
	}

	var buf bytes.Buffer
	if err := bounceTemplate.Execute(&buf, page); err != nil {
		return "", errors.Wrap(err, "renderBouncePage")
	}
	return buf.String(), nil
}
