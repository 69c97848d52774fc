// Package services holds the application services between the HTTP
// transport and the pipeline: read access to the latest snapshot and
// control of refresh operations, including the cron schedule.
package services
