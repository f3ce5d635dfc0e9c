package model

import (
	"context"
	"os"

	"github.com/evergreen-ci/pail"
	"github.com/pkg/errors"
)

// PailType describes the name of the blob storage backing a pail Bucket
// implementation.
type PailType string

const (
	PailS3    PailType = "s3"
	PailLocal PailType = "local"

	defaultS3Region = "us-east-1"
)

func (t PailType) Validate() error {
	switch t {
	case PailS3, PailLocal:
		return nil
	default:
		return errors.Errorf("invalid bucket type '%s'", t)
	}
}

// Create returns a pail Bucket backed by PailType. For local buckets the
// bucket name is a directory path.
func (t PailType) Create(ctx context.Context, bucket, prefix, region string) (pail.Bucket, error) {
	var b pail.Bucket
	var err error

	switch t {
	case PailS3:
		if region == "" {
			region = defaultS3Region
		}
		opts := pail.S3Options{
			Name:   bucket,
			Prefix: prefix,
			Region: region,
		}
		b, err = pail.NewS3Bucket(opts)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	case PailLocal:
		if err = os.MkdirAll(bucket, 0755); err != nil {
			return nil, errors.Wrapf(err, "creating local bucket directory '%s'", bucket)
		}
		opts := pail.LocalOptions{
			Path:   bucket,
			Prefix: prefix,
		}
		b, err = pail.NewLocalBucket(opts)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	default:
		return nil, errors.Errorf("bucket type '%s' is not implemented", t)
	}

	if err = b.Check(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	return b, nil
}
