package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"fabric-annotator/internal/annotator/importer"
	"fabric-annotator/internal/annotator/models"
	"fabric-annotator/internal/annotator/repository"
	"fabric-annotator/internal/annotator/service"
	"fabric-annotator/internal/editor"
)

// ============================================================
// Annotator Handler
// ============================================================

// Options holds the editor defaults applied to new sessions.
type Options struct {
	EdgeThreshold float64
	HistoryLimit  int
	MinConfidence float64
}

type AnnotatorHandler struct {
	repo     *repository.Repository
	sessions *service.SessionManager
	labels   *service.LabelStorage
	log      *zap.Logger
	opts     Options
}

func NewAnnotatorHandler(repo *repository.Repository, sessions *service.SessionManager, labels *service.LabelStorage, log *zap.Logger, opts Options) *AnnotatorHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AnnotatorHandler{
		repo:     repo,
		sessions: sessions,
		labels:   labels,
		log:      log,
		opts:     opts,
	}
}

// Register mounts the image and session routes on r.
func (h *AnnotatorHandler) Register(r fiber.Router) {
	r.Post("/images", h.CreateImage)
	r.Get("/images", h.ListImages)
	r.Get("/images/:id", h.GetImage)
	r.Post("/images/:id/detections", h.ImportDetections)
	r.Post("/images/:id/svg", h.ImportSVG)
	r.Get("/images/:id/svg", h.ExportSVG)

	r.Post("/sessions", h.OpenSession)
	r.Get("/sessions/:id", h.GetSession)
	r.Delete("/sessions/:id", h.CloseSession)
	r.Post("/sessions/:id/pointer", h.Pointer)
	r.Get("/sessions/:id/cursor", h.Cursor)
	r.Patch("/sessions/:id/viewport", h.Viewport)
	r.Post("/sessions/:id/undo", h.Undo)
	r.Post("/sessions/:id/redo", h.Redo)
	r.Post("/sessions/:id/boxes", h.AddBox)
	r.Put("/sessions/:id/boxes/:boxId", h.UpdateBox)
	r.Delete("/sessions/:id/boxes/:boxId", h.RemoveBox)
	r.Delete("/sessions/:id/boxes", h.ClearBoxes)
	r.Post("/sessions/:id/save", h.Save)
}

// ============================================================
// Images
// ============================================================

type createImageRequest struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (h *AnnotatorHandler) CreateImage(c fiber.Ctx) error {
	var req createImageRequest
	if err := decode(c, &req, true); err != nil {
		return err
	}
	if req.Name == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "name required"})
	}
	if req.Width <= 0 || req.Height <= 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "width and height must be positive"})
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	img, err := h.repo.CreateImage(c.Context(), models.Image{
		ID:     req.ID,
		Name:   req.Name,
		Width:  req.Width,
		Height: req.Height,
	})
	if err != nil {
		h.log.Error("create image", zap.String("image", req.ID), zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create image"})
	}

	h.log.Info("image created", zap.String("image", img.ID), zap.String("name", img.Name))
	return c.Status(http.StatusCreated).JSON(img)
}

func (h *AnnotatorHandler) ListImages(c fiber.Ctx) error {
	images, err := h.repo.ListImages(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"images": images})
}

// GetImage returns the image with its saved box counts.
func (h *AnnotatorHandler) GetImage(c fiber.Ctx) error {
	img, err := h.image(c, c.Params("id"))
	if err != nil {
		return err
	}
	counts, err := h.repo.CountBoxes(c.Context(), img.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"image": img, "counts": counts})
}

type detectionsRequest struct {
	Detections    []models.Detection `json:"detections"`
	MinConfidence *float64           `json:"min_confidence"`
}

// ImportDetections replaces the saved boxes of an image with detector output.
func (h *AnnotatorHandler) ImportDetections(c fiber.Ctx) error {
	img, err := h.image(c, c.Params("id"))
	if err != nil {
		return err
	}

	var req detectionsRequest
	if err := decode(c, &req, true); err != nil {
		return err
	}
	minConf := h.opts.MinConfidence
	if req.MinConfidence != nil {
		minConf = *req.MinConfidence
	}

	boxes := importer.Clip(importer.FromDetections(req.Detections, minConf), img.Width, img.Height)
	h.log.Info("detections imported",
		zap.String("image", img.ID),
		zap.Int("rows", len(req.Detections)),
		zap.Int("kept", len(boxes)))
	return h.storeImported(c, img, boxes)
}

// ImportSVG replaces the saved boxes of an image with the rects of an
// uploaded SVG overlay.
func (h *AnnotatorHandler) ImportSVG(c fiber.Ctx) error {
	img, err := h.image(c, c.Params("id"))
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "file required"})
	}
	if ext := strings.ToLower(filepath.Ext(fileHeader.Filename)); ext != ".svg" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "only svg allowed"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to open file"})
	}
	defer file.Close()

	parsed, err := importer.ParseSVG(file)
	if err != nil {
		h.log.Warn("svg import rejected", zap.String("image", img.ID), zap.Error(err))
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid svg"})
	}

	boxes := importer.Clip(parsed, img.Width, img.Height)
	h.log.Info("svg imported",
		zap.String("image", img.ID),
		zap.String("file", fileHeader.Filename),
		zap.Int("kept", len(boxes)))
	return h.storeImported(c, img, boxes)
}

// ExportSVG renders the saved boxes of an image as an SVG overlay.
func (h *AnnotatorHandler) ExportSVG(c fiber.Ctx) error {
	img, err := h.image(c, c.Params("id"))
	if err != nil {
		return err
	}
	boxes, err := h.repo.LoadBoxes(c.Context(), img.ID)
	if err != nil {
		return err
	}

	c.Set("Content-Type", "image/svg+xml")
	return c.SendString(importer.RenderSVG(img.Width, img.Height, boxes))
}

func (h *AnnotatorHandler) storeImported(c fiber.Ctx, img *models.Image, boxes []editor.BoundingBox) error {
	if err := h.repo.SaveBoxes(c.Context(), img.ID, boxes); err != nil {
		return err
	}
	counts, err := h.repo.CountBoxes(c.Context(), img.ID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"boxes": boxes, "counts": counts})
}

// ============================================================
// Sessions
// ============================================================

type openSessionRequest struct {
	ImageID       string  `json:"image_id"`
	MultipleBoxes *bool   `json:"multiple_boxes"`
	Zoom          float64 `json:"zoom"`
	EdgeThreshold float64 `json:"edge_threshold"`
}

type sessionResponse struct {
	Session string       `json:"session"`
	ImageID string       `json:"image_id"`
	State   editor.State `json:"state"`
}

// OpenSession starts an editor on an image, seeded with its saved boxes.
func (h *AnnotatorHandler) OpenSession(c fiber.Ctx) error {
	var req openSessionRequest
	if err := decode(c, &req, true); err != nil {
		return err
	}
	if req.ImageID == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "image_id required"})
	}

	img, err := h.image(c, req.ImageID)
	if err != nil {
		return err
	}
	boxes, err := h.repo.LoadBoxes(c.Context(), img.ID)
	if err != nil {
		return err
	}

	multiple := true
	if req.MultipleBoxes != nil {
		multiple = *req.MultipleBoxes
	}
	threshold := req.EdgeThreshold
	if threshold <= 0 {
		threshold = h.opts.EdgeThreshold
	}

	s := h.sessions.Open(img.ID, editor.Options{
		Width:         img.Width,
		Height:        img.Height,
		Zoom:          req.Zoom,
		EdgeThreshold: threshold,
		MultipleBoxes: multiple,
		HistoryLimit:  h.opts.HistoryLimit,
	}, boxes)
	c.Locals("session", s.ID)

	return c.Status(http.StatusCreated).JSON(sessionResponse{
		Session: s.ID,
		ImageID: s.ImageID,
		State:   s.Snapshot(),
	})
}

func (h *AnnotatorHandler) GetSession(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(sessionResponse{Session: s.ID, ImageID: s.ImageID, State: s.Snapshot()})
}

func (h *AnnotatorHandler) CloseSession(c fiber.Ctx) error {
	id := c.Params("id")
	c.Locals("session", id)
	if !h.sessions.Close(id) {
		return fiber.NewError(http.StatusNotFound, "session not found")
	}
	return c.JSON(fiber.Map{"status": "closed"})
}

type pointerRequest struct {
	Type   string        `json:"type"`
	X      float64       `json:"x"`
	Y      float64       `json:"y"`
	Client *editor.Point `json:"client"`
	Origin *editor.Point `json:"origin"`
}

// Pointer feeds one pointer event into the session's gesture state machine.
// When client is given, the position is mapped from page coordinates using
// origin and the current zoom.
func (h *AnnotatorHandler) Pointer(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var req pointerRequest
	if err := decode(c, &req, true); err != nil {
		return err
	}

	var (
		changed bool
		state   editor.State
		bad     bool
	)
	s.Do(func(e *editor.Editor) {
		p := editor.Point{X: req.X, Y: req.Y}
		if req.Client != nil {
			var origin editor.Point
			if req.Origin != nil {
				origin = *req.Origin
			}
			p = editor.ClientToLogical(*req.Client, origin, e.Zoom())
		}

		switch req.Type {
		case "down":
			changed = e.PointerDown(p)
		case "move":
			changed = e.PointerMove(p)
		case "up":
			changed = e.PointerUp()
		case "cancel":
			changed = e.CancelGesture()
		default:
			bad = true
		}
		state = e.State()
	})
	if bad {
		return fiber.NewError(http.StatusBadRequest, "unknown pointer type")
	}

	return c.JSON(fiber.Map{"changed": changed, "state": state})
}

// Cursor reports the hover cursor at ?x=&y=.
func (h *AnnotatorHandler) Cursor(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	x, errX := strconv.ParseFloat(c.Query("x"), 64)
	y, errY := strconv.ParseFloat(c.Query("y"), 64)
	if errX != nil || errY != nil {
		return fiber.NewError(http.StatusBadRequest, "x and y required")
	}

	var cursor editor.Cursor
	s.Do(func(e *editor.Editor) { cursor = e.CursorAt(editor.Point{X: x, Y: y}) })
	return c.JSON(fiber.Map{"cursor": cursor})
}

type viewportRequest struct {
	Zoom          *float64 `json:"zoom"`
	Enabled       *bool    `json:"enabled"`
	MultipleBoxes *bool    `json:"multiple_boxes"`
	EdgeThreshold *float64 `json:"edge_threshold"`
}

func (h *AnnotatorHandler) Viewport(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var req viewportRequest
	if err := decode(c, &req, false); err != nil {
		return err
	}

	var state editor.State
	s.Do(func(e *editor.Editor) {
		if req.Zoom != nil {
			e.SetZoom(*req.Zoom)
		}
		if req.Enabled != nil {
			e.SetEnabled(*req.Enabled)
		}
		if req.MultipleBoxes != nil {
			e.SetMultipleBoxes(*req.MultipleBoxes)
		}
		if req.EdgeThreshold != nil {
			e.SetEdgeThreshold(*req.EdgeThreshold)
		}
		state = e.State()
	})
	return c.JSON(fiber.Map{"state": state})
}

// ============================================================
// History
// ============================================================

func (h *AnnotatorHandler) Undo(c fiber.Ctx) error {
	return h.step(c, (*editor.Editor).Undo)
}

func (h *AnnotatorHandler) Redo(c fiber.Ctx) error {
	return h.step(c, (*editor.Editor).Redo)
}

func (h *AnnotatorHandler) step(c fiber.Ctx, fn func(*editor.Editor) *editor.HistoryResult) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}

	var (
		result *editor.HistoryResult
		state  editor.State
	)
	s.Do(func(e *editor.Editor) {
		result = fn(e)
		state = e.State()
	})
	if result != nil {
		h.log.Debug("history step",
			zap.String("session", s.ID),
			zap.String("direction", string(result.Direction)),
			zap.String("op", string(result.Op.Kind)))
	}
	return c.JSON(fiber.Map{"result": result, "state": state})
}

// ============================================================
// Direct Box Edits
// ============================================================

func (h *AnnotatorHandler) AddBox(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var box editor.BoundingBox
	if err := decode(c, &box, true); err != nil {
		return err
	}

	var (
		stored editor.BoundingBox
		state  editor.State
	)
	s.Do(func(e *editor.Editor) {
		stored = e.AddBox(box)
		state = e.State()
	})
	return c.Status(http.StatusCreated).JSON(fiber.Map{"box": stored, "state": state})
}

func (h *AnnotatorHandler) UpdateBox(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var upd editor.BoxUpdate
	if err := decode(c, &upd, true); err != nil {
		return err
	}

	boxID := c.Params("boxId")
	return h.mutate(c, s, func(e *editor.Editor) bool { return e.UpdateBox(boxID, upd) })
}

func (h *AnnotatorHandler) RemoveBox(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	boxID := c.Params("boxId")
	return h.mutate(c, s, func(e *editor.Editor) bool { return e.RemoveBox(boxID) })
}

func (h *AnnotatorHandler) ClearBoxes(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	return h.mutate(c, s, (*editor.Editor).ClearBoxes)
}

// mutate applies fn and answers with the resulting state. Unknown ids are
// not errors; they come back as changed=false.
func (h *AnnotatorHandler) mutate(c fiber.Ctx, s *service.Session, fn func(*editor.Editor) bool) error {
	var (
		changed bool
		state   editor.State
	)
	s.Do(func(e *editor.Editor) {
		changed = fn(e)
		state = e.State()
	})
	return c.JSON(fiber.Map{"changed": changed, "state": state})
}

// ============================================================
// Save
// ============================================================

// Save persists the session's boxes, exports the label files and returns the
// adjusted counts.
func (h *AnnotatorHandler) Save(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	img, err := h.image(c, s.ImageID)
	if err != nil {
		return err
	}

	var boxes []editor.BoundingBox
	s.Do(func(e *editor.Editor) { boxes = e.Boxes() })

	if err := h.repo.SaveBoxes(c.Context(), img.ID, boxes); err != nil {
		return err
	}
	if err := h.labels.Export(*img, boxes); err != nil {
		h.log.Error("export labels", zap.String("image", img.ID), zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to export labels"})
	}
	counts, err := h.repo.CountBoxes(c.Context(), img.ID)
	if err != nil {
		return err
	}

	h.log.Info("session saved",
		zap.String("session", s.ID),
		zap.String("image", img.ID),
		zap.Int("boxes", counts.Total))
	return c.JSON(fiber.Map{
		"counts": counts,
		"labels": h.labels.LabelsPath(img.ID),
	})
}

// ============================================================
// Helpers
// ============================================================

func (h *AnnotatorHandler) session(c fiber.Ctx) (*service.Session, error) {
	id := c.Params("id")
	c.Locals("session", id)
	s, ok := h.sessions.Get(id)
	if !ok {
		return nil, fiber.NewError(http.StatusNotFound, "session not found")
	}
	return s, nil
}

func (h *AnnotatorHandler) image(c fiber.Ctx, id string) (*models.Image, error) {
	img, err := h.repo.GetImage(c.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fiber.NewError(http.StatusNotFound, "image not found")
	}
	return img, err
}

// decode unmarshals the JSON body into v. An empty body is an error only when
// required is set.
func decode(c fiber.Ctx, v any, required bool) error {
	body := c.Body()
	if len(body) == 0 {
		if required {
			return fiber.NewError(http.StatusBadRequest, "empty body")
		}
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid json")
	}
	return nil
}
