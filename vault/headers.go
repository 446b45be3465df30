package vault

import "net/http"

// Header names attached to authenticated console requests.
const (
	HeaderRequestedWith     = "X-Requested-With"
	HeaderContentTypeOpts   = "X-Content-Type-Options"
	HeaderDeviceFingerprint = "X-Device-Fingerprint"
	HeaderAuthorization     = "Authorization"
)

// SecureHeaders returns the headers for an outbound console request.
// Authorization is set only while a valid access token is held.
func (v *Vault) SecureHeaders() http.Header {
	h := make(http.Header)
	h.Set(HeaderRequestedWith, "XMLHttpRequest")
	h.Set(HeaderContentTypeOpts, "nosniff")
	h.Set(HeaderDeviceFingerprint, v.fingerprint.Hash())

	if token, ok := v.GetToken(SlotAccess); ok {
		h.Set(HeaderAuthorization, "Bearer "+token)
	}
	return h
}
