package render

// RenderOptions describe per-request settings renderers can use without
// touching the page session.
type RenderOptions struct {
	// Fragment drops the surrounding document and emits only the widget
	// sections. Renderers without a document shell ignore it.
	Fragment bool
	// BasePath is prepended to the canonical page URL, e.g. the scheme and
	// host a server answers on.
	BasePath string
}

// CanonicalURL joins BasePath and the snapshot URL.
func (o RenderOptions) CanonicalURL(url string) string {
	if o.BasePath == "" {
		return url
	}
	base := o.BasePath
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	if url == "" || url[0] != '/' {
		return base + "/" + url
	}
	return base + url
}
