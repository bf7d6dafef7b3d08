package store

import (
	"bufio"
	"context"
	"io"

	"github.com/ulikunitz/xz"

	apperrors "github.com/havenapps/selah/core/errors"
)

// ExportStudies writes every stored study to w as an xz-compressed
// stream of JSON lines, one SavedStudy per line.
func (s *Store) ExportStudies(ctx context.Context, w io.Writer) (int, error) {
	studies, err := s.ListStudies(ctx, 0)
	if err != nil {
		return 0, err
	}

	xzw, err := xz.NewWriter(w)
	if err != nil {
		return 0, apperrors.Wrap(err, "creating xz writer")
	}

	count := 0
	for _, saved := range studies {
		line, err := json.Marshal(saved)
		if err != nil {
			return count, apperrors.Wrap(err, "encoding study")
		}
		if _, err := xzw.Write(append(line, '\n')); err != nil {
			return count, apperrors.Wrap(err, "writing archive")
		}
		count++
	}

	if err := xzw.Close(); err != nil {
		return count, apperrors.Wrap(err, "finalizing archive")
	}
	return count, nil
}

// ImportStudies reads an archive produced by ExportStudies and inserts
// its studies. Existing rows with the same content are left alone.
func (s *Store) ImportStudies(ctx context.Context, r io.Reader) (int, error) {
	xzr, err := xz.NewReader(r)
	if err != nil {
		return 0, apperrors.Wrap(err, "opening xz archive")
	}

	count := 0
	scanner := bufio.NewScanner(xzr)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var saved SavedStudy
		if err := json.Unmarshal(line, &saved); err != nil {
			return count, apperrors.Wrap(err, "decoding archived study")
		}
		if _, err := s.SaveStudy(ctx, saved.Topic, saved.Study); err != nil {
			return count, err
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, apperrors.Wrap(err, "reading archive")
	}
	return count, nil
}
