package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fabric-annotator/internal/annotator/models"
	"fabric-annotator/internal/editor"
)

// ============================================================
// Label Storage
// ============================================================

// DefaultClass names boxes saved without a label.
const DefaultClass = "object"

type LabelStorage struct {
	root string
}

func NewLabelStorage(root string) *LabelStorage {
	return &LabelStorage{root: root}
}

func (s *LabelStorage) ImageDir(imageID string) string {
	return filepath.Join(s.root, imageID)
}

func (s *LabelStorage) LabelsPath(imageID string) string {
	return filepath.Join(s.ImageDir(imageID), "labels.txt")
}

func (s *LabelStorage) ClassesPath(imageID string) string {
	return filepath.Join(s.ImageDir(imageID), "classes.txt")
}

func (s *LabelStorage) BoxesPath(imageID string) string {
	return filepath.Join(s.ImageDir(imageID), "boxes.json")
}

func (s *LabelStorage) EnsureDir(imageID string) error {
	if err := os.MkdirAll(s.ImageDir(imageID), 0o755); err != nil {
		return fmt.Errorf("mkdir labels dir: %w", err)
	}
	return nil
}

type boxesFile struct {
	ImageID string               `json:"image_id"`
	Width   float64              `json:"width"`
	Height  float64              `json:"height"`
	Boxes   []editor.BoundingBox `json:"boxes"`
}

// Export writes the YOLO label file, its class list and a JSON copy of the
// boxes for img.
func (s *LabelStorage) Export(img models.Image, boxes []editor.BoundingBox) error {
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("image %s has no size", img.ID)
	}
	if err := s.EnsureDir(img.ID); err != nil {
		return err
	}

	classes := Classes(boxes)
	if err := os.WriteFile(s.LabelsPath(img.ID), []byte(YOLOLines(boxes, classes, img.Width, img.Height)), 0o644); err != nil {
		return fmt.Errorf("write labels: %w", err)
	}

	var names strings.Builder
	for _, c := range classes {
		names.WriteString(c)
		names.WriteByte('\n')
	}
	if err := os.WriteFile(s.ClassesPath(img.ID), []byte(names.String()), 0o644); err != nil {
		return fmt.Errorf("write classes: %w", err)
	}

	if boxes == nil {
		boxes = []editor.BoundingBox{}
	}
	data, err := json.MarshalIndent(boxesFile{
		ImageID: img.ID,
		Width:   img.Width,
		Height:  img.Height,
		Boxes:   boxes,
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.BoxesPath(img.ID), data, 0o644); err != nil {
		return fmt.Errorf("write boxes: %w", err)
	}
	return nil
}

// Classes returns the sorted set of class names used by boxes.
func Classes(boxes []editor.BoundingBox) []string {
	seen := make(map[string]struct{})
	for _, b := range boxes {
		seen[className(b.Label)] = struct{}{}
	}
	classes := make([]string, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	return classes
}

// YOLOLines renders one "class cx cy w h" line per box, normalized to the
// image size. classes must contain every box's class.
func YOLOLines(boxes []editor.BoundingBox, classes []string, width, height float64) string {
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}

	var sb strings.Builder
	for _, b := range boxes {
		x1, y1, x2, y2 := b.Normalized()
		fmt.Fprintf(&sb, "%d %.6f %.6f %.6f %.6f\n",
			index[className(b.Label)],
			(x1+x2)/2/width,
			(y1+y2)/2/height,
			(x2-x1)/width,
			(y2-y1)/height,
		)
	}
	return sb.String()
}

func className(label string) string {
	if label = strings.TrimSpace(label); label != "" {
		return label
	}
	return DefaultClass
}
