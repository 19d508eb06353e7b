package utils

import (
	"time"

	"k8s.io/klog/v2"

	"github.com/grad-lab/capstone-backend/pkg/config"
)

func GetLocalTime() time.Time {
	timeZone := config.GetConfig().Postgres.TimeZone
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		klog.Errorf("failed to load location: %v", err)
		return time.Now()
	}
	return time.Now().In(loc)
}
