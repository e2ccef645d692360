package warehouse

// Dimension rows. The natural key of each is unique and never changes.

type YearDim struct {
	ID   int64 `gorm:"primaryKey"`
	Year int   `gorm:"uniqueIndex;not null"`
}

func (YearDim) TableName() string { return "year_dim" }

type TemperatureCategoryDim struct {
	ID       int64  `gorm:"primaryKey"`
	Category string `gorm:"uniqueIndex;not null"`
}

func (TemperatureCategoryDim) TableName() string { return "temperature_category_dim" }

type CO2CategoryDim struct {
	ID       int64  `gorm:"primaryKey"`
	Category string `gorm:"uniqueIndex;not null"`
}

func (CO2CategoryDim) TableName() string { return "co2_category_dim" }

type SeaLevelCategoryDim struct {
	ID       int64  `gorm:"primaryKey"`
	Category string `gorm:"uniqueIndex;not null"`
}

func (SeaLevelCategoryDim) TableName() string { return "sea_level_category_dim" }

type ExtremeEventTypeDim struct {
	ID        int64  `gorm:"primaryKey"`
	EventType string `gorm:"uniqueIndex;not null"`
}

func (ExtremeEventTypeDim) TableName() string { return "extreme_event_type_dim" }

type RegionDim struct {
	ID     int64  `gorm:"primaryKey"`
	Region string `gorm:"uniqueIndex;not null"`
}

func (RegionDim) TableName() string { return "region_dim" }

type EcosystemDim struct {
	ID        int64  `gorm:"primaryKey"`
	Ecosystem string `gorm:"uniqueIndex;not null"`
}

func (EcosystemDim) TableName() string { return "ecosystem_dim" }

type SourceDim struct {
	ID     int64  `gorm:"primaryKey"`
	Source string `gorm:"uniqueIndex;not null"`
}

func (SourceDim) TableName() string { return "source_dim" }

// ClimateIndicatorsFact holds yearly indicator readings. Its natural key is
// (YearID, TempCategoryID, CO2CategoryID, SeaLevelCategoryID, SourceID).
type ClimateIndicatorsFact struct {
	ID                 int64 `gorm:"primaryKey"`
	YearID             int64 `gorm:"not null"`
	TempCategoryID     int64 `gorm:"not null"`
	CO2CategoryID      int64 `gorm:"column:co2_category_id;not null"`
	SeaLevelCategoryID int64 `gorm:"not null"`
	SourceID           int64 `gorm:"not null"`

	GlobalAvgTemp    float64 `gorm:"not null"`
	CO2Concentration float64 `gorm:"column:co2_concentration;not null"`
	SeaLevelRise     float64 `gorm:"not null"`
}

func (ClimateIndicatorsFact) TableName() string { return "climate_indicators_fact" }

// ExtremeEventsFact holds event tallies and losses. Its natural key is
// (YearID, EventTypeID, RegionID, EcosystemID, SourceID).
type ExtremeEventsFact struct {
	ID          int64 `gorm:"primaryKey"`
	YearID      int64 `gorm:"not null"`
	EventTypeID int64 `gorm:"not null"`
	RegionID    int64 `gorm:"not null"`
	EcosystemID int64 `gorm:"not null"`
	SourceID    int64 `gorm:"not null"`

	ExtremeEventsCount int64   `gorm:"not null"`
	EconomicLoss       float64 `gorm:"not null"`
}

func (ExtremeEventsFact) TableName() string { return "extreme_events_fact" }

// keys holds the resolved dimension ids of one observation.
type keys struct {
	Year, TempCategory, CO2Category, SeaLevelCategory int64
	EventType, Region, Ecosystem, Source              int64
}

func (k keys) eventsNaturalKey() map[string]any {
	return map[string]any{
		"year_id":       k.Year,
		"event_type_id": k.EventType,
		"region_id":     k.Region,
		"ecosystem_id":  k.Ecosystem,
		"source_id":     k.Source,
	}
}

func (k keys) indicatorsNaturalKey() map[string]any {
	return map[string]any{
		"year_id":               k.Year,
		"temp_category_id":      k.TempCategory,
		"co2_category_id":       k.CO2Category,
		"sea_level_category_id": k.SeaLevelCategory,
		"source_id":             k.Source,
	}
}
