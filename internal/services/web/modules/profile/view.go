package profile

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/kscalelabs/storefront/internal/services/web/routepath"
	webtemplates "github.com/kscalelabs/storefront/internal/services/web/templates"
)

// Form field names of the edit form.
const (
	fieldFirstName = "first_name"
	fieldLastName  = "last_name"
	fieldBio       = "bio"
)

// RenderProfile renders profile fragments. It holds no state beyond copy.
type RenderProfile struct {
	Loc webtemplates.Localizer
}

// Read renders the subject in read mode. The edit control appears only when
// canEdit is true.
func (v RenderProfile) Read(record UserRecord, canEdit bool) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		out := webtemplates.NewHTML(w)
		out.Raw(`<section id="profile" class="profile" data-profile-state="viewing"`)
		out.Attr("data-profile-user", record.ID)
		out.Attr("data-profile-live", routepath.ProfileLiveFor(record.ID))
		out.Raw(`><h1 data-profile-field="name">`)
		if name := record.FullName(); name != "" {
			out.Text(name)
		} else {
			out.Text(webtemplates.T(v.Loc, "web.profile.no_name"))
		}
		out.Raw(`</h1>`)

		if bio := trimmed(record.Bio); bio != "" {
			out.Raw(`<p data-profile-field="bio">`)
			out.Text(bio)
		} else {
			out.Raw(`<p data-profile-field="bio" class="placeholder">`)
			out.Text(webtemplates.T(v.Loc, "web.profile.no_bio"))
		}
		out.Raw(`</p><p data-profile-field="email">`)
		if email := trimmed(record.Email); email != "" {
			out.Text(email)
		} else {
			out.Text(webtemplates.T(v.Loc, "web.profile.no_email"))
		}
		out.Raw(`</p><p data-profile-field="joined">`)
		if joined, ok := record.JoinDate(); ok {
			out.Text(webtemplates.T(v.Loc, "web.profile.joined", joined))
		} else {
			out.Text(webtemplates.T(v.Loc, "web.profile.unknown_date"))
		}
		out.Raw(`</p>`)

		if canEdit {
			out.Raw(`<a class="button" data-profile-action="edit"`)
			out.Attr("href", routepath.ProfileEdit)
			out.Raw(`>`)
			out.Text(webtemplates.T(v.Loc, "web.profile.edit"))
			out.Raw(`</a>`)
		}
		out.Raw(`</section>`)
		out.Raw(liveScript)
		return out.Err()
	})
}

// Edit renders the edit form seeded from draft. While submitting, the actions
// are replaced by a busy indicator.
func (v RenderProfile) Edit(draft EditBuffer, submitting bool) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		out := webtemplates.NewHTML(w)
		state := StateEditing
		if submitting {
			state = StateSubmitting
		}
		out.Raw(`<section id="profile" class="profile"`)
		out.Attr("data-profile-state", state.String())
		out.Raw(`><form method="post"`)
		out.Attr("action", routepath.ProfileEdit)
		out.Raw(`>`)
		v.input(out, fieldFirstName, "web.profile.first_name", draft.FirstName, submitting)
		v.input(out, fieldLastName, "web.profile.last_name", draft.LastName, submitting)

		out.Raw(`<label for="profile-bio">`)
		out.Text(webtemplates.T(v.Loc, "web.profile.bio"))
		out.Raw(`</label><textarea id="profile-bio"`)
		out.Attr("name", fieldBio)
		if submitting {
			out.Raw(` disabled`)
		}
		out.Raw(`>`)
		out.Text(draft.Bio)
		out.Raw(`</textarea>`)

		if submitting {
			out.Raw(`<p class="busy" role="status" aria-busy="true" data-profile-busy="true">`)
			out.Text(webtemplates.T(v.Loc, "web.profile.saving"))
			out.Raw(`</p>`)
		} else {
			out.Raw(`<div class="actions"><button type="submit" data-profile-action="save">`)
			out.Text(webtemplates.T(v.Loc, "web.profile.save"))
			out.Raw(`</button><a data-profile-action="cancel"`)
			out.Attr("href", routepath.Profile)
			out.Raw(`>`)
			out.Text(webtemplates.T(v.Loc, "web.profile.cancel"))
			out.Raw(`</a></div>`)
		}
		out.Raw(`</form></section>`)
		return out.Err()
	})
}

func (v RenderProfile) input(out *webtemplates.HTML, name string, labelKey string, value string, disabled bool) {
	id := "profile-" + name
	out.Raw(`<label`)
	out.Attr("for", id)
	out.Raw(`>`)
	out.Text(webtemplates.T(v.Loc, labelKey))
	out.Raw(`</label><input type="text"`)
	out.Attr("id", id)
	out.Attr("name", name)
	out.Attr("value", value)
	if disabled {
		out.Raw(` disabled`)
	}
	out.Raw(`>`)
}

// NotFound renders the missing-subject state.
func (v RenderProfile) NotFound() templ.Component {
	return v.message("not_found", "web.profile.not_found")
}

// Loading renders the placeholder shown before the subject is known.
func (v RenderProfile) Loading() templ.Component {
	return v.message("loading", "web.profile.loading")
}

func (v RenderProfile) message(state string, key string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		out := webtemplates.NewHTML(w)
		out.Raw(`<section id="profile" class="profile"`)
		out.Attr("data-profile-state", state)
		out.Raw(`><p>`)
		out.Text(webtemplates.T(v.Loc, key))
		out.Raw(`</p></section>`)
		return out.Err()
	})
}

// Snapshot renders the container state in read mode.
func (v RenderProfile) Snapshot(snap Snapshot) templ.Component {
	switch {
	case snap.State == StateLoading:
		return v.Loading()
	case !snap.Found:
		return v.NotFound()
	default:
		return v.Read(snap.Subject, snap.CanEdit)
	}
}

// liveScript relays live events from the page's websocket as DOM events named
// "profile:image" and "profile:urdf".
const liveScript = `<script>
(function () {
  var root = document.querySelector("[data-profile-live]");
  if (!root || !window.WebSocket) { return; }
  var url = new URL(root.getAttribute("data-profile-live"), window.location.href);
  url.protocol = url.protocol === "https:" ? "wss:" : "ws:";
  var socket = new WebSocket(url);
  socket.onmessage = function (msg) {
    var data = JSON.parse(msg.data);
    root.dispatchEvent(new CustomEvent("profile:" + data.type, { bubbles: true, detail: data }));
  };
})();
</script>`
