package model

import "gorm.io/gorm"

// ProjectFile is metadata for a document kept in the external file-storage
// service. The backend only stores the opaque storage ID and never reads
// file content.
type ProjectFile struct {
	gorm.Model
	StorageID string `gorm:"uniqueIndex;type:varchar(64);not null;comment:opaque id in the storage service"`
	Name      string `gorm:"type:varchar(256);not null;comment:original file name"`
	SizeBytes int64  `gorm:"not null;default:0"`
	OwnerID   uint   `gorm:"index;not null"`
	ProjectID *uint  `gorm:"index;comment:project the file is attached to, if any"`
}
