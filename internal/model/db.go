package model

import (
	"time"

	"gorm.io/datatypes"
)

// Entity 制裁实体主表（四个来源清单归一化后每个实体一条）
// uid 即全局唯一业务主键：来源提供的自然ID，或无ID时的确定性降级ID
type Entity struct {
	UID         string     `gorm:"column:uid;primaryKey;type:varchar(128);comment:全局唯一ID"`
	PrimaryName *string    `gorm:"column:primary_name;type:varchar(512);comment:主名称"`
	Type        EntityType `gorm:"column:type;type:varchar(32);comment:实体类型：Individual/Entity/Unknown"`
	SourceList  SourceList `gorm:"column:source;type:varchar(16);index;comment:来源清单：OFAC/UN/EU/UK"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;type:timestamp;comment:最近入库时间"`

	// 子表集合（迁移时建立 ON DELETE CASCADE 外键）
	Aliases     []Alias      `gorm:"foreignKey:EntityUID;references:UID;constraint:OnDelete:CASCADE"`
	Addresses   []Address    `gorm:"foreignKey:EntityUID;references:UID;constraint:OnDelete:CASCADE"`
	Programs    []Program    `gorm:"foreignKey:EntityUID;references:UID;constraint:OnDelete:CASCADE"`
	Identifiers []Identifier `gorm:"foreignKey:EntityUID;references:UID;constraint:OnDelete:CASCADE"`
	Features    []Feature    `gorm:"foreignKey:EntityUID;references:UID;constraint:OnDelete:CASCADE"`
}

// Alias 别名子表。可选字段存空串而非NULL：复合唯一索引遇NULL不去重，会破坏幂等入库
type Alias struct {
	ID        uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	EntityUID string `gorm:"column:entity_uid;type:varchar(128);not null;uniqueIndex:uq_alias_tuple;comment:所属实体UID"`
	Name      string `gorm:"column:name;type:varchar(512);not null;uniqueIndex:uq_alias_tuple;comment:别名"`
	Type      string `gorm:"column:type;type:varchar(128);default:'';uniqueIndex:uq_alias_tuple;comment:别名类型标签"`
	Script    string `gorm:"column:script;type:varchar(128);default:'';uniqueIndex:uq_alias_tuple;comment:文字/语言"`
}

// Address 地址子表，full_text 为人读的拼接全文，按 (entity_uid, full_text) 去重
type Address struct {
	ID         uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	EntityUID  string `gorm:"column:entity_uid;type:varchar(128);not null;uniqueIndex:uq_address_tuple"`
	Street     string `gorm:"column:street;type:varchar(256);default:''"`
	City       string `gorm:"column:city;type:varchar(128);default:''"`
	Country    string `gorm:"column:country;type:varchar(128);default:''"`
	PostalCode string `gorm:"column:postal;type:varchar(32);default:''"`
	FullText   string `gorm:"column:full_text;type:varchar(1024);not null;uniqueIndex:uq_address_tuple"`
	Region     string `gorm:"column:region;type:varchar(128);default:''"`
	Place      string `gorm:"column:place;type:varchar(128);default:''"`
	POBox      string `gorm:"column:po_box;type:varchar(64);default:''"`
}

// Program 制裁计划/指定子表，(entity_uid, program) 唯一
type Program struct {
	ID        uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	EntityUID string `gorm:"column:entity_uid;type:varchar(128);not null;uniqueIndex:uq_program_tuple"`
	Program   string `gorm:"column:program;type:varchar(256);not null;uniqueIndex:uq_program_tuple"`
}

// Identifier 证件子表，(entity_uid, doc_type, doc_number) 唯一
type Identifier struct {
	ID             uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	EntityUID      string `gorm:"column:entity_uid;type:varchar(128);not null;uniqueIndex:uq_identifier_tuple"`
	DocType        string `gorm:"column:doc_type;type:varchar(128);default:'';uniqueIndex:uq_identifier_tuple"`
	DocNumber      string `gorm:"column:doc_number;type:varchar(128);not null;uniqueIndex:uq_identifier_tuple"`
	IssuingCountry string `gorm:"column:country;type:varchar(128);default:''"`
	Comment        string `gorm:"column:comment;type:text"`
}

// Feature 开放式特征子表（出生日期、国籍、头衔、备注、上榜日期等）
type Feature struct {
	ID        uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	EntityUID string `gorm:"column:entity_uid;type:varchar(128);not null;uniqueIndex:uq_feature_tuple"`
	Type      string `gorm:"column:type;type:varchar(128);not null;uniqueIndex:uq_feature_tuple"`
	Value     string `gorm:"column:value;type:text;not null;uniqueIndex:uq_feature_tuple"`
}

// SourceRun 同步批次记录表（仅观测用，不属于登记库本身）
type SourceRun struct {
	ID         uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	RunUUID    string         `gorm:"column:run_uuid;type:varchar(64);uniqueIndex;not null;comment:批次UUID"`
	Status     string         `gorm:"column:status;type:varchar(16);default:'running';comment:running/finished/failed"`
	Stats      datatypes.JSON `gorm:"column:stats;comment:各来源统计"`
	StartedAt  time.Time      `gorm:"column:started_at;type:timestamp"`
	FinishedAt *time.Time     `gorm:"column:finished_at;type:timestamp"`
}

// 表名沿用既有登记库的西语命名（对外契约，不可改）
func (Entity) TableName() string     { return "Entidades" }
func (Alias) TableName() string      { return "Alias" }
func (Address) TableName() string    { return "Direcciones" }
func (Program) TableName() string    { return "Programas" }
func (Identifier) TableName() string { return "Identificadores" }
func (Feature) TableName() string    { return "CaracteristicasAdicionales" }
func (SourceRun) TableName() string  { return "source_runs" }
