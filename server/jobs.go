package server

import (
	"context"
	"fmt"
	"time"

	"github.com/medportal/medportal/server/models"
	"github.com/medportal/medportal/server/work"
	"github.com/medportal/medportal/shared"
)

const (
	DELETE_STALE_REQUESTS_JOB = "delete_stale_emergency_requests"
	SQLITE_BACKUP_JOB         = "backup_sqlite_db"

	// Pending requests older than this are dead weight, their action
	// tokens expired long ago
	staleRequestAgeHours = 24
)

func registerJobHandlers(wpa *work.WorkerPoolAdapter) {
	fatalOnError(wpa.Register(DELETE_STALE_REQUESTS_JOB, deleteStaleEmergencyRequests))
	fatalOnError(wpa.Register(SQLITE_BACKUP_JOB, backupSqliteDb))
}

func enqueueJobs(wpa *work.WorkerPoolAdapter, config *shared.ServerConfig) {
	err := wpa.PeriodicallyPerform("0 * * * *", work.JobParams{
		Name:    DELETE_STALE_REQUESTS_JOB,
		Handler: DELETE_STALE_REQUESTS_JOB,
		Unique:  true,
		Args:    map[string]interface{}{},
	})
	fatalOnError(err)

	if sqliteBackupEnabled(config) {
		err = wpa.PeriodicallyPerform(config.Google.Storage.SqliteBackupSchedule, work.JobParams{
			Name:    SQLITE_BACKUP_JOB,
			Handler: SQLITE_BACKUP_JOB,
			Unique:  true,
			Args:    map[string]interface{}{},
		})
		fatalOnError(err)
	}
}

func deleteStaleEmergencyRequests(map[string]interface{}) error {
	count, err := models.DeleteStaleEmergencyRequests(staleRequestAgeHours)
	if err != nil {
		return fmt.Errorf("deleteStaleEmergencyRequests: %v", err)
	}

	if count > 0 {
		logg.Infof("Deleted %v stale emergency request(s)", count)
	}

	return nil
}

func backupSqliteDb(map[string]interface{}) error {
	if storageClient == nil {
		return fmt.Errorf("backupSqliteDb: no storage client configured")
	}

	dbFilePath, err := models.DbFilePath(dbRootDir)
	if err != nil {
		return fmt.Errorf("backupSqliteDb: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	err = storageClient.UploadFile(
		ctx,
		serverConfig.Google.Storage.Bucket,
		serverConfig.Google.Storage.Prefix,
		dbFilePath,
	)
	if err != nil {
		return fmt.Errorf("backupSqliteDb: %v", err)
	}

	logg.Infof("Sqlite db backed up to bucket %v", serverConfig.Google.Storage.Bucket)
	return nil
}

func sqliteBackupEnabled(config *shared.ServerConfig) bool {
	enabled, ok := config.Google.Storage.EnableSqliteBackupAndSync.(bool)
	return ok && enabled && config.Google.ApplicationCredentials != ""
}
