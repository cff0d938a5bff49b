// Package s3 implements blobstore.BlobStore on Amazon S3, for publishing
// imputed rasters and sample tables to object storage.
package s3
