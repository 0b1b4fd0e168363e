// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package photos issues presigned S3 URLs for nominee profile photos.
//
// Clients upload directly to the bucket with the URL from PresignUpload and
// then save the returned key on the nominee profile. Any S3-compatible store
// works; set Endpoint for MinIO and friends.
package photos
