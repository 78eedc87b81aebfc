package usecase

import (
	"context"

	log "github.com/sirupsen/logrus"

	"drivesync/internal/domain"
)

// Validator re-enumerates both trees and asserts that every source file is
// present in the destination with matching size and, when both sides carry
// one, matching checksum. It reports discrepancies; it never repairs them
// and never mutates either tree.
type Validator struct {
	enum *TreeEnumerator
}

// NewValidator returns a validator using enum for both trees.
func NewValidator(enum *TreeEnumerator) *Validator {
	return &Validator{enum: enum}
}

// Validate compares the two trees and returns the categorized discrepancies.
func (v *Validator) Validate(ctx context.Context, sourceID, destID string) ([]domain.Discrepancy, error) {
	source, err := v.enum.Enumerate(ctx, sourceID, "source-validation")
	if err != nil {
		return nil, err
	}
	dest, err := v.enum.Enumerate(ctx, destID, "destination-validation")
	if err != nil {
		return nil, err
	}

	discrepancies := CollectDiscrepancies(source, dest)
	for _, d := range discrepancies {
		log.WithFields(log.Fields{"kind": d.Kind, "path": d.Path}).Error("Validation discrepancy")
	}
	if len(discrepancies) == 0 {
		log.Info("Validation passed, all files and folders match")
	}
	return discrepancies, nil
}

// CollectDiscrepancies diffs two snapshots into discrepancy records: missing
// files, size mismatches, checksum mismatches, and missing folders. Extra
// destination entries are not discrepancies here; the comparator reports
// extra folders for audit purposes.
func CollectDiscrepancies(source, dest *domain.TreeSnapshot) []domain.Discrepancy {
	var out []domain.Discrepancy

	for path, src := range source.Files {
		dst, ok := dest.Files[path]
		if !ok {
			out = append(out, domain.Discrepancy{Kind: domain.MissingFile, Path: path, SourceSize: src.Size})
			continue
		}
		if src.Size != dst.Size {
			out = append(out, domain.Discrepancy{
				Kind:       domain.SizeMismatch,
				Path:       path,
				SourceSize: src.Size,
				DestSize:   dst.Size,
			})
			continue
		}
		if src.Checksum != "" && dst.Checksum != "" && src.Checksum != dst.Checksum {
			out = append(out, domain.Discrepancy{Kind: domain.ChecksumMismatch, Path: path})
		}
	}

	for path := range source.Folders {
		if _, ok := dest.Folders[path]; !ok {
			out = append(out, domain.Discrepancy{Kind: domain.MissingFolder, Path: path})
		}
	}
	return out
}
