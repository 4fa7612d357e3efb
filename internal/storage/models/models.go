package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Candidate 候选人主表
type Candidate struct {
	CandidateID     string    `gorm:"type:char(36);primaryKey"`
	Name            string    `gorm:"type:varchar(255)"`
	Email           string    `gorm:"type:varchar(255);index:idx_candidates_email"`
	Phone           string    `gorm:"type:varchar(50)"`
	PositionApplied string    `gorm:"type:varchar(255)"`
	Status          string    `gorm:"type:varchar(50);default:'new';index:idx_candidates_status"`
	Notes           string    `gorm:"type:text"`
	CreatedAt       time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);index:idx_candidates_created_at"`
	UpdatedAt       time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Candidate) TableName() string {
	return "candidates"
}

// CVFile 简历原始文件表，一个候选人可能多次上传
type CVFile struct {
	FileID            string    `gorm:"type:char(36);primaryKey"`
	CandidateID       string    `gorm:"type:char(36);not null;index:idx_cv_files_candidate_id"`
	OriginalFilename  string    `gorm:"type:varchar(255)"`
	ContentType       string    `gorm:"type:varchar(100)"`
	SizeBytes         int64     `gorm:"type:bigint"`
	RawFileMD5        string    `gorm:"type:char(32);index:idx_cv_files_raw_file_md5"`
	OriginalPathOSS   string    `gorm:"type:varchar(1024)"`
	ParsedTextPathOSS string    `gorm:"type:varchar(1024)"`
	UploadStatus      string    `gorm:"type:varchar(50);default:'pending';index:idx_cv_files_upload_status"`
	ParseError        string    `gorm:"type:text"`
	CreatedAt         time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt         time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`

	Candidate *Candidate `gorm:"foreignKey:CandidateID;references:CandidateID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (CVFile) TableName() string {
	return "cv_files"
}

// CandidateDetail 解析出的结构化简历内容，与候选人一对一
// 重新解析时整行覆盖，不做字段级合并
type CandidateDetail struct {
	CandidateID        string         `gorm:"type:char(36);primaryKey"`
	Summary            string         `gorm:"type:text"`
	EducationJSON      datatypes.JSON `gorm:"type:json"`
	ExperienceJSON     datatypes.JSON `gorm:"type:json"`
	SkillsJSON         datatypes.JSON `gorm:"type:json"`
	LanguagesJSON      datatypes.JSON `gorm:"type:json"`
	CertificationsJSON datatypes.JSON `gorm:"type:json"`
	ParserVersion      string         `gorm:"type:varchar(50)"`
	CreatedAt          time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt          time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`

	Candidate *Candidate `gorm:"foreignKey:CandidateID;references:CandidateID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (CandidateDetail) TableName() string {
	return "candidate_details"
}

// SliceToJSON 把任意切片序列化为datatypes.JSON
func SliceToJSON(v interface{}) (datatypes.JSON, error) {
	bytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes, nil
}
