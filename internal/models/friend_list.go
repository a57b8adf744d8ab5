package models

import (
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// FriendList is the persisted friend record of one code.
// Friend edges are symmetric: if B is in A's list, A is in B's list.
type FriendList struct {
	Code    string         `gorm:"primaryKey" json:"code"`
	Friends pq.StringArray `gorm:"type:text[]" json:"friends"`
}

// Has reports whether code is already a friend.
func (f *FriendList) Has(code string) bool {
	for _, c := range f.Friends {
		if c == code {
			return true
		}
	}
	return false
}

// Add appends code unless it is already present or equals the owner code.
// It returns true when the list changed.
func (f *FriendList) Add(code string) bool {
	if code == f.Code || f.Has(code) {
		return false
	}
	f.Friends = append(f.Friends, code)
	return true
}

// Remove drops code from the list and returns true when it was present.
func (f *FriendList) Remove(code string) bool {
	for i, c := range f.Friends {
		if c == code {
			f.Friends = append(f.Friends[:i], f.Friends[i+1:]...)
			return true
		}
	}
	return false
}

// BeforeSave is a GORM hook that drops duplicates and self references before
// the row is written.
func (f *FriendList) BeforeSave(tx *gorm.DB) (err error) {
	seen := make(map[string]struct{}, len(f.Friends))
	out := f.Friends[:0]
	for _, c := range f.Friends {
		if c == "" || c == f.Code {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	f.Friends = out
	return
}
