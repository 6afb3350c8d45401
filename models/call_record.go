package models

import "time"

// CallRecord marks that an article's submission baseline has been accepted
// by RQC. The editor assignment set actually transmitted is stored as JSON
// so that later resends report the identical set even if editors were
// assigned or removed in the meantime.
type CallRecord struct {
	ID                uint      `gorm:"primaryKey;column:id;autoIncrement" json:"id"`
	ArticleID         int       `gorm:"column:article_id;uniqueIndex" json:"article_id"`
	EditorAssignments []byte    `gorm:"column:editor_assignments;type:json" json:"editor_assignments,omitempty"`
	CreateAt          time.Time `gorm:"column:create_at;autoCreateTime" json:"create_at"`
}

func (CallRecord) TableName() string {
	return "rqc_call_records"
}

// RQCAPIRequest is an audit row written for every outbound RQC call.
type RQCAPIRequest struct {
	ID             uint64    `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	ArticleID      *int      `json:"article_id,omitempty" gorm:"column:article_id"`
	HTTPMethod     string    `json:"http_method" gorm:"column:http_method;type:varchar(8);not null"`
	Endpoint       string    `json:"endpoint" gorm:"column:endpoint;type:text;not null"`
	ResponseStatus *int      `json:"response_status,omitempty" gorm:"column:response_status"`
	ResponseTimeMs *int      `json:"response_time_ms,omitempty" gorm:"column:response_time_ms"`
	CreatedAt      time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (RQCAPIRequest) TableName() string { return "rqc_api_requests" }
