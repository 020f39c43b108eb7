package profile

import (
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/kscalelabs/storefront/internal/services/web/integration/storeapi"
	apperrors "github.com/kscalelabs/storefront/internal/services/web/platform/errors"
	flashnotice "github.com/kscalelabs/storefront/internal/services/web/platform/flash"
)

// AlertSink receives user-facing outcomes of profile operations.
type AlertSink interface {
	Error(err error)
	Success(key string)
}

// noticeAlerts records alerts as flash notices for the handler to render
// inline or persist across a redirect.
type noticeAlerts struct {
	mu      sync.Mutex
	notices []flashnotice.Notice
}

func (a *noticeAlerts) Error(err error) {
	if err == nil {
		return
	}
	log.Printf("profile alert op=%s kind=%s err=%v", apperrors.OpOf(err), apperrors.KindOf(err), err)
	a.add(errorNotice(err))
}

// errorNotice builds the notice shown for err: a localized summary plus the
// store's own detail when it sent one.
func errorNotice(err error) flashnotice.Notice {
	key := apperrors.LocalizationKey(err)
	if key == "" {
		key = kindKey(apperrors.KindOf(err))
	}
	return flashnotice.NoticeError(key, upstreamDetail(err))
}

func upstreamDetail(err error) string {
	var apiErr *storeapi.Error
	if !errors.As(err, &apiErr) || apiErr == nil {
		return ""
	}
	return strings.TrimSpace(apiErr.Detail)
}

func (a *noticeAlerts) Success(key string) {
	a.add(flashnotice.NoticeSuccess(key))
}

func (a *noticeAlerts) add(notice flashnotice.Notice) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notices = append(a.notices, notice)
}

// Last returns the most recent notice.
func (a *noticeAlerts) Last() (flashnotice.Notice, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.notices) == 0 {
		return flashnotice.Notice{}, false
	}
	return a.notices[len(a.notices)-1], true
}

func kindKey(kind apperrors.Kind) string {
	switch kind {
	case apperrors.KindUnauthorized, apperrors.KindForbidden:
		return "web.error.unauthorized"
	case apperrors.KindNotFound:
		return "web.profile.not_found"
	case apperrors.KindUnavailable:
		return "web.error.unavailable"
	case apperrors.KindConflict:
		return "web.profile.update_in_flight"
	case apperrors.KindInvalidInput:
		return "web.profile.update_failed"
	default:
		return "web.error.internal"
	}
}

type discardAlerts struct{}

func (discardAlerts) Error(err error) {
	log.Printf("profile alert dropped err=%v", err)
}

func (discardAlerts) Success(string) {}
