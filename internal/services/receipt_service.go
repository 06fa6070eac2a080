package services

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reimbly/backend/internal/logger"
	"github.com/reimbly/backend/internal/models"
)

var (
	ErrReceiptTooLarge = errors.New("receipt exceeds the 5MB limit")
	ErrReceiptType     = errors.New("receipt must be a JPEG, PNG or PDF")
)

// MaxReceiptSize caps uploaded receipt files.
const MaxReceiptSize = 5 << 20

var allowedReceiptTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

// ReceiptService stores uploaded receipt files on disk and resolves them to
// the descriptor expenses keep. Content type is sniffed from the bytes, not
// trusted from the request.
type ReceiptService struct {
	dir string
}

func NewReceiptService(dir string) *ReceiptService {
	return &ReceiptService{dir: dir}
}

// Store saves an uploaded receipt and returns its descriptor.
func (s *ReceiptService) Store(file *multipart.FileHeader) (*models.Receipt, error) {
	if file.Size > MaxReceiptSize {
		return nil, ErrReceiptTooLarge
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, MaxReceiptSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxReceiptSize {
		return nil, ErrReceiptTooLarge
	}

	mtype := mimetype.Detect(data)
	ext, ok := allowedReceiptTypes[mtype.String()]
	if !ok {
		return nil, fmt.Errorf("%w: got %s", ErrReceiptType, mtype.String())
	}

	name := "receipt-" + uuid.New().String() + ext
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("store receipt: %w", err)
	}

	return &models.Receipt{
		Filename: name,
		URL:      "/uploads/" + name,
		MimeType: mtype.String(),
		Size:     int64(len(data)),
	}, nil
}

// Remove deletes a stored receipt file. A missing file is not an error.
func (s *ReceiptService) Remove(filename string) error {
	if filename == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(filename)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove receipt: %w", err)
	}
	return nil
}

// SweepOrphans deletes stored receipt files no expense references anymore.
// Returns the number of files removed.
func (s *ReceiptService) SweepOrphans(db *gorm.DB) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read upload dir: %w", err)
	}

	var referenced []string
	err = db.Model(&models.Expense{}).
		Where("receipt_filename <> ''").
		Pluck("receipt_filename", &referenced).Error
	if err != nil {
		return 0, fmt.Errorf("list referenced receipts: %w", err)
	}

	keep := make(map[string]struct{}, len(referenced))
	for _, name := range referenced {
		keep[name] = struct{}{}
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := keep[entry.Name()]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			logger.WithFields(map[string]interface{}{"file": entry.Name(), "error": err.Error()}).
				Warn("failed to remove orphan receipt")
			continue
		}
		removed++
	}
	return removed, nil
}
