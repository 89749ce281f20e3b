package extract

import (
	"bytes"
	"context"
	"path"

	"cloud.google.com/go/storage"
	"github.com/mmdatafocus/orders_etl/utils"
	"github.com/sirupsen/logrus"
)

// GCSSource reads <Prefix>/<kind>.csv objects from a bucket.
type GCSSource struct {
	Client *storage.Client
	Bucket string
	Prefix string
	Logger *logrus.Logger
}

func NewGCSSource(client *storage.Client, bucket, prefix string, logger *logrus.Logger) *GCSSource {
	if logger == nil {
		logger = logrus.New()
	}
	return &GCSSource{Client: client, Bucket: bucket, Prefix: prefix, Logger: logger}
}

func (s *GCSSource) ObjectName(kind string) string {
	return path.Join(s.Prefix, kind+".csv")
}

func (s *GCSSource) Extract(ctx context.Context) (*RawData, error) {
	data := &RawData{}
	for _, kind := range Kinds {
		object := s.ObjectName(kind)
		b, err := utils.ReadGCSObject(ctx, s.Client, s.Bucket, object)
		if err != nil {
			return nil, err
		}
		t, err := ReadCSV(bytes.NewReader(b), kind)
		if err != nil {
			return nil, err
		}
		if err := data.set(kind, t); err != nil {
			return nil, err
		}
		s.Logger.WithFields(logrus.Fields{
			"field":  "GCSSource.Extract",
			"table":  kind,
			"object": "gs://" + s.Bucket + "/" + object,
			"rows":   t.Len(),
		}).Info("extracted raw table")
	}
	return data, nil
}
