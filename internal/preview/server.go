package preview

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"log/slog"
	"path/filepath"

	"github.com/valyala/fasthttp"

	"github.com/ironsheep/dataset-tools/internal/category"
	"github.com/ironsheep/dataset-tools/internal/coco"
	"github.com/ironsheep/dataset-tools/internal/imaging"
)

// Server serves one COCO dataset:
//
//	GET /images             image entries as JSON
//	GET /annotations?id=N   annotations of image N as JSON
//	GET /preview?id=N       image N with its annotations drawn, as PNG
type Server struct {
	ds       *coco.Dataset
	table    *category.Table
	imageDir string
	cache    *imaging.ImageCache
	logger   *slog.Logger
}

// NewServer returns a server for ds whose image files live in imageDir.
func NewServer(ds *coco.Dataset, table *category.Table, imageDir string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		ds:       ds,
		table:    table,
		imageDir: imageDir,
		cache:    imaging.NewImageCache(),
		logger:   logger,
	}
}

// Handler routes a request.
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() {
		ctx.Error("method not allowed", fasthttp.StatusMethodNotAllowed)
		return
	}
	switch string(ctx.Path()) {
	case "/images":
		s.writeJSON(ctx, s.ds.Images)
	case "/annotations":
		img, ok := s.lookup(ctx)
		if !ok {
			return
		}
		anns := s.ds.AnnotationsFor(img.ID)
		if anns == nil {
			anns = []coco.Annotation{}
		}
		s.writeJSON(ctx, anns)
	case "/preview":
		img, ok := s.lookup(ctx)
		if !ok {
			return
		}
		s.writePreview(ctx, img)
	default:
		ctx.Error("not found", fasthttp.StatusNotFound)
	}
}

// Serve listens on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &fasthttp.Server{Handler: s.Handler, Name: "dataset-tools"}
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(); err != nil {
			s.logger.Warn("preview server shutdown", "error", err)
		}
	}()
	s.logger.Info("serving previews", "addr", addr, "images", len(s.ds.Images))
	return srv.ListenAndServe(addr)
}

func (s *Server) lookup(ctx *fasthttp.RequestCtx) (coco.Image, bool) {
	id, err := ctx.QueryArgs().GetUint("id")
	if err != nil {
		ctx.Error("missing or invalid id", fasthttp.StatusBadRequest)
		return coco.Image{}, false
	}
	img, ok := s.ds.ImageByID(id)
	if !ok {
		ctx.Error("no such image", fasthttp.StatusNotFound)
		return coco.Image{}, false
	}
	return img, true
}

func (s *Server) writeJSON(ctx *fasthttp.RequestCtx, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(data)
}

func (s *Server) writePreview(ctx *fasthttp.RequestCtx, entry coco.Image) {
	path := filepath.Join(s.imageDir, entry.FileName)
	img, err := s.cache.Load(path)
	if err != nil {
		s.logger.Warn("preview image unavailable", "file", entry.FileName, "error", err)
		ctx.Error("image unavailable", fasthttp.StatusNotFound)
		return
	}
	out := Render(img, s.ds.AnnotationsFor(entry.ID), s.table)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("image/png")
	ctx.SetBody(buf.Bytes())
}
