package templates

import (
	"github.com/a-h/templ"
)

func ErrorPage(props ErrorPageProps) templ.Component {
	return layout("Error", component(func(h *htmlWriter) {
		h.raw(`<h1>`)
		if props.Error != "" {
			h.text(props.Error)
		} else {
			h.raw(`Something went wrong`)
		}
		h.raw(`</h1>`)
		if props.Message != "" {
			h.raw(`<p>`)
			h.text(props.Message)
			h.raw(`</p>`)
		}
		h.raw(`<p><a href="/">Back to home</a></p>`)
	}))
}

func SignInPage(props SignInPageProps) templ.Component {
	return layout("Sign in", component(func(h *htmlWriter) {
		h.raw(`<h1>Sign in</h1>`)
		h.component(flashes(props.Flashes))
		errorBanner(h, props.Error)
		h.raw(`<form method="post" action="/sign-in">`)
		csrfField(h, props.CSRFToken)
		hiddenField(h, "target", props.Target)
		inputField(h, "Email", "email", "email", props.Email, true, " autofocus")
		inputField(h, "Password", "password", "password", "", true, "")
		h.raw(`<button type="submit">Sign in</button></form>`)
		h.component(providerButtons(props.OAuthProviders))
		h.raw(`<p>No account yet? <a href="/join">Join</a></p>`)
	}))
}

func JoinPage(props JoinPageProps) templ.Component {
	return layout("Join", component(func(h *htmlWriter) {
		h.raw(`<h1>Create an account</h1>`)
		h.component(flashes(props.Flashes))
		errorBanner(h, props.Error)
		h.raw(`<form method="post" action="/join">`)
		csrfField(h, props.CSRFToken)
		hiddenField(h, "target", props.Target)
		inputField(h, "First name", "text", "first", props.FirstName, true, "")
		inputField(h, "Last name", "text", "last", props.LastName, true, "")
		inputField(h, "Email", "email", "email", props.Email, true, "")
		inputField(h, "Password", "password", "password", "", true, "")
		h.raw(`<button type="submit">Join</button></form>`)
		h.component(providerButtons(props.OAuthProviders))
		h.raw(`<p>Already registered? <a href="/sign-in">Sign in</a></p>`)
	}))
}

// ConfirmPage asks a federated user to confirm the profile fields the
// provider returned before an account is created or linked.
func ConfirmPage(props ConfirmPageProps) templ.Component {
	return layout("Confirm your details", component(func(h *htmlWriter) {
		h.raw(`<h1>Almost there</h1>`)
		h.component(flashes(props.Flashes))
		errorBanner(h, props.Error)
		h.raw(`<p>`)
		if props.AvatarURL != "" {
			h.raw(`<img src="`)
			h.url(props.AvatarURL)
			h.raw(`" alt="" width="64" height="64"> `)
		}
		h.raw(`You are signing in with `)
		h.text(props.ProviderName)
		if props.Username != "" {
			h.raw(` as <strong>`)
			h.text(props.Username)
			h.raw(`</strong>`)
		}
		h.raw(`. Please confirm your name and email address.</p>`)
		h.raw(`<form method="post" action="/auth/confirm">`)
		csrfField(h, props.CSRFToken)
		hiddenField(h, "target", props.Target)
		inputField(h, "First name", "text", "first", props.FirstName, true, "")
		inputField(h, "Last name", "text", "last", props.LastName, true, "")
		inputField(h, "Email", "email", "email", props.Email, true, "")
		inputField(h, "Website", "url", "website", props.Website, false, "")
		h.raw(`<button type="submit">Continue</button></form>`)
	}))
}

func AccountPage(props AccountPageProps) templ.Component {
	return layout("Your account", component(func(h *htmlWriter) {
		h.component(navbar(props.Navbar))
		h.component(flashes(props.Flashes))
		h.raw(`<h1>`)
		h.text(props.FirstName + " " + props.LastName)
		h.raw(`</h1><p>`)
		h.text(props.Email)
		if props.IsAdmin {
			h.raw(` · administrator`)
		}
		h.raw(`</p>`)
		if props.Website != "" {
			h.raw(`<p><a href="`)
			h.url(props.Website)
			h.raw(`" rel="nofollow noopener">`)
			h.text(props.Website)
			h.raw(`</a></p>`)
		}

		h.raw(`<h2>Linked accounts</h2>`)
		if len(props.Services) == 0 {
			h.raw(`<p>No linked accounts yet.</p>`)
		} else {
			h.raw(`<ul>`)
			for _, s := range props.Services {
				h.raw(`<li>`)
				if s.AvatarURL != "" {
					h.raw(`<img src="`)
					h.url(s.AvatarURL)
					h.raw(`" alt="" width="24" height="24"> `)
				}
				h.text(s.DisplayName)
				if s.Username != "" {
					h.raw(`: `)
					h.text(s.Username)
				}
				h.raw(`</li>`)
			}
			h.raw(`</ul>`)
		}

		if len(props.AvailableProviders) > 0 {
			h.raw(`<h2>Link another account</h2>`)
			h.component(providerButtons(props.AvailableProviders))
		}
	}))
}
