// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cloud

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
)

const locatorPrefix = "gs://"

// GCSObjectStore stores asset bytes in a Cloud Storage bucket and hands out
// gs:// locators. It also mints short-lived signed download URLs through the
// IAM Credentials API so clients can stream assets without credentials.
type GCSObjectStore struct {
	client      *storage.Client
	iamClient   *credentials.IamCredentialsClient
	bucket      string
	signerEmail string
}

// NewGCSObjectStore builds a store writing to the given bucket, signing
// preview URLs as signerEmail.
func NewGCSObjectStore(client *storage.Client, iamClient *credentials.IamCredentialsClient, bucket string, signerEmail string) *GCSObjectStore {
	return &GCSObjectStore{
		client:      client,
		iamClient:   iamClient,
		bucket:      bucket,
		signerEmail: signerEmail,
	}
}

// Put writes data under name and returns its gs:// locator.
func (s *GCSObjectStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write object %q: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finish object %q: %w", name, err)
	}
	return fmt.Sprintf("%s%s/%s", locatorPrefix, s.bucket, name), nil
}

// Get reads the bytes behind a locator minted by Put.
func (s *GCSObjectStore) Get(ctx context.Context, locator string) ([]byte, error) {
	bucket, object, err := ParseLocator(locator)
	if err != nil {
		return nil, err
	}
	r, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", locator, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

// SignedURL returns a V4 GET URL for the object behind the locator, valid
// for the given duration. Signing goes through the IAM Credentials API so no
// service account key ever touches disk.
func (s *GCSObjectStore) SignedURL(ctx context.Context, locator string, expires time.Duration) (string, error) {
	bucket, object, err := ParseLocator(locator)
	if err != nil {
		return "", err
	}
	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(expires),
		GoogleAccessID: s.signerEmail,
		SignBytes: func(b []byte) ([]byte, error) {
			req := &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.signerEmail),
				Payload: b,
			}
			resp, err := s.iamClient.SignBlob(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("IAMClient.SignBlob: %w", err)
			}
			return resp.SignedBlob, nil
		},
	}
	u, err := s.client.Bucket(bucket).SignedURL(object, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).SignedURL(%q): %w", bucket, object, err)
	}
	return u, nil
}

// ParseLocator splits a gs://bucket/object locator into its parts.
func ParseLocator(locator string) (bucket, object string, err error) {
	if !strings.HasPrefix(locator, locatorPrefix) {
		return "", "", fmt.Errorf("invalid locator format: %s", locator)
	}
	path := strings.TrimPrefix(locator, locatorPrefix)
	parts := strings.SplitN(path, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid locator: unable to determine bucket and object from %s", locator)
	}
	return parts[0], parts[1], nil
}
