package dashboard

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// fileRouter serves static assets and downloadable files next to the gin routes
type fileRouter struct {
	mux     *chi.Mux
	mounted map[string]string
}

func newFileRouter() *fileRouter {
	mux := chi.NewRouter()
	mux.Use(middleware.Compress(5))
	return &fileRouter{mux: mux, mounted: make(map[string]string)}
}

// mount exposes folder below prefix, e.g. "/download"
func (r *fileRouter) mount(prefix, folder string) {
	r.mounted[prefix] = folder
	fs := http.StripPrefix(prefix+"/", http.FileServer(noListing{http.Dir(folder)}))
	r.mux.Handle(prefix+"/*", fs)
}

func (r *fileRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// noListing hides directory indexes
type noListing struct {
	fs http.FileSystem
}

func (n noListing) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}
