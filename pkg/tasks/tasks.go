// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// AvatarGenerationTask represents the data structure for an avatar generation job.
type AvatarGenerationTask struct {
	ProfileID    string `json:"profile_id"`
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Traits       string `json:"traits"`
}
