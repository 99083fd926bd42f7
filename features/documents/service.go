package documents

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"policypilot/backend/internal/config"
	"policypilot/backend/internal/index"
	"policypilot/backend/internal/middleware"
	"policypilot/backend/internal/worker"
)

var validExts = map[string]bool{
	".pdf": true,
	".txt": true,
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type IndexManager interface {
	Ensure(ctx context.Context, rebuild bool) error
	Status() index.Status
}

type Service struct {
	dataDir   string
	publisher EventPublisher
	manager   IndexManager
}

func NewService(dataDir string, publisher EventPublisher, manager IndexManager) *Service {
	return &Service{dataDir: dataDir, publisher: publisher, manager: manager}
}

// SaveUpload writes an uploaded document into the corpus directory under
// its original basename, so clause IDs stay stable across re-uploads of
// the same file. The index is not touched; callers decide when to
// rebuild.
func (s *Service) SaveUpload(ctx context.Context, filename string, r io.Reader) (*DocumentInfo, error) {
	name := filepath.Base(filename)
	ext := strings.ToLower(filepath.Ext(name))
	if !validExts[ext] {
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}
	if name == "." || name == string(filepath.Separator) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("invalid filename %q", filename)
	}

	if err := os.MkdirAll(s.dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("create corpus directory: %w", err)
	}

	path := filepath.Clean(filepath.Join(s.dataDir, name))
	dst, err := os.Create(path) // #nosec G304 -- path is dataDir + sanitized basename
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	defer dst.Close()

	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(dst, hash), r)
	if err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}

	info := &DocumentInfo{
		Name:      name,
		SizeBytes: size,
		SHA256:    fmt.Sprintf("%x", hash.Sum(nil)),
	}
	if st, err := os.Stat(path); err == nil {
		info.ModifiedAt = st.ModTime()
	}

	slog.InfoContext(ctx, "document saved", "name", name, "size_bytes", size)

	// With a publisher wired, every upload schedules a rebuild so the
	// new document becomes searchable without an extra API call. The
	// upload itself never fails on a publish error.
	if s.publisher != nil {
		if _, err := s.RequestRebuild(ctx, "document uploaded", false); err != nil {
			slog.WarnContext(ctx, "failed to schedule rebuild after upload", "error", err)
		}
	}
	return info, nil
}

// List returns the corpus documents sorted by name. A missing corpus
// directory is an empty corpus, not an error.
func (s *Service) List(ctx context.Context) ([]DocumentInfo, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []DocumentInfo{}, nil
		}
		return nil, err
	}

	infos := []DocumentInfo{}
	for _, e := range entries {
		if e.IsDir() || !validExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		infos = append(infos, DocumentInfo{
			Name:       e.Name(),
			SizeBytes:  fi.Size(),
			ModifiedAt: fi.ModTime(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// RequestRebuild schedules a full index rebuild. With a publisher wired
// it is asynchronous over NSQ; without one, or when the caller demands
// sync, the rebuild runs inline and the call blocks until the new index
// is live.
func (s *Service) RequestRebuild(ctx context.Context, reason string, sync bool) (async bool, err error) {
	if s.publisher != nil && !sync {
		payload, err := json.Marshal(worker.RebuildRequest{
			Reason:        reason,
			CorrelationID: middleware.GetCorrelationID(ctx),
		})
		if err != nil {
			return false, err
		}
		if err := s.publisher.Publish(config.TopicIndexRebuild, payload); err != nil {
			return false, fmt.Errorf("publish rebuild event: %w", err)
		}
		return true, nil
	}
	return false, s.manager.Ensure(ctx, true)
}

func (s *Service) IndexStatus() index.Status {
	return s.manager.Status()
}
