package source

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/adapter/driven/aws"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/repository"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/shared/types"
)

// FileRepositoryImpl opens local files through afero and hands s3:// locations to remote.
type FileRepositoryImpl struct {
	fs     afero.Fs
	remote repository.BlobRepository
}

// NewFileRepository routes locations to fs or remote. remote may be nil when only local
// files are read.
func NewFileRepository(fs afero.Fs, remote repository.BlobRepository) repository.BlobRepository {
	return &FileRepositoryImpl{fs: fs, remote: remote}
}

func (r *FileRepositoryImpl) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if aws.IsS3Location(location) {
		if r.remote == nil {
			return nil, fmt.Errorf("%w: no S3 access configured for %s", types.ErrUnsupportedIO, location)
		}
		return r.remote.Open(ctx, location)
	}

	info, err := r.fs.Stat(location)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", location, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a file", location)
	}
	f, err := r.fs.Open(location)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", location, err)
	}
	return f, nil
}
