package http

import stdhttp "net/http"

const faviconPath = "favicon.ico"

// staticResponse answers the favicon and bundled asset paths. Assets are passed through
// byte-for-byte with no explicit content type.
func (s *Server) staticResponse(path string) (response, bool) {
	if path == faviconPath {
		return response{Kind: kindFavicon, Status: stdhttp.StatusNotFound}, true
	}

	data, ok := s.assets.Lookup(path)
	if !ok {
		return response{}, false
	}

	return response{Kind: kindAsset, Status: stdhttp.StatusOK, Body: data}, true
}
