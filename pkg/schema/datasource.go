package schema

import (
	"slices"

	"github.com/dukex/procflow/pkg/models"
)

// dataSources maps every data-source type to the schema of its payload.
var dataSources = map[models.DataSourceType]func() *models.JSONSchema{
	models.DataSourceTypeSensorData: func() *models.JSONSchema {
		return &models.JSONSchema{
			Type:                 "object",
			Description:          "Reading of an input slot of a functional unit.",
			Required:             []string{"fctId", "slotName"},
			AdditionalProperties: closed(),
			Properties: map[string]*models.JSONSchema{
				"fctId":    nonEmptyString(),
				"slotName": nonEmptyString(),
			},
		}
	},
}

// DataSourceTypes returns the registered data-source types in stable order.
func DataSourceTypes() []models.DataSourceType {
	types := make([]models.DataSourceType, 0, len(dataSources))
	for dataSourceType := range dataSources {
		types = append(types, dataSourceType)
	}

	slices.Sort(types)

	return types
}

// DataSourcePayload returns the payload schema of a data-source type.
func DataSourcePayload(dataSourceType models.DataSourceType) (*models.JSONSchema, bool) {
	payload, ok := dataSources[dataSourceType]
	if !ok {
		return nil, false
	}

	return payload(), true
}

func dataSourceSchema() *models.JSONSchema {
	variants := make([]*models.JSONSchema, 0, len(dataSources))

	for _, dataSourceType := range DataSourceTypes() {
		payload, _ := DataSourcePayload(dataSourceType)
		variants = append(variants, &models.JSONSchema{
			Title:                string(dataSourceType),
			Type:                 "object",
			Required:             []string{"type", "data"},
			AdditionalProperties: closed(),
			Properties: map[string]*models.JSONSchema{
				"type": {Const: string(dataSourceType)},
				"data": payload,
			},
		})
	}

	return &models.JSONSchema{
		Description: "Reference to a value resolved outside the workflow.",
		OneOf:       variants,
	}
}
