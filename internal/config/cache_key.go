package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SemesterRowsKey returns the cache key holding a semester sheet's rows as JSON.
func (r *CacheKeyStruct) SemesterRowsKey(studentID, number int) string {
	return fmt.Sprintf("student:%d:semester:%d:rows", studentID, number)
}

// SemesterIndexKey returns the cache key of the set of semester numbers a
// student has touched.
func (r *CacheKeyStruct) SemesterIndexKey(studentID int) string {
	return fmt.Sprintf("student:%d:semesters", studentID)
}

// PlannerChannel returns the Redis PubSub channel carrying a student's
// semester updates.
func (r *CacheKeyStruct) PlannerChannel(studentID int) string {
	return fmt.Sprintf("student:%d:planner", studentID)
}

var CacheKey = NewCacheKeyStruct()
