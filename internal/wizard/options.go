package wizard

import (
	"slices"
	"strconv"

	"estate_bot/internal/model"
)

// Option is a selectable value of a facet stage.
type Option struct {
	Label string
	Value string
}

// Districts offered by the wizard.
var Districts = []string{
	"Мирабадский",
	"Мирзо-Улугбекский",
	"Юнусабадский",
	"Шайхантохурский",
	"Яккасарайский",
	"Яшнабадский",
}

var options = map[Stage][]Option{
	StageType: {
		{Label: model.TypeNewBuild, Value: model.TypeNewBuild},
		{Label: model.TypeSecondary, Value: model.TypeSecondary},
	},
	StageCondition: {
		{Label: model.ConditionRenovated, Value: model.ConditionRenovated},
		{Label: model.ConditionBare, Value: model.ConditionBare},
		{Label: model.ConditionAverage, Value: model.ConditionAverage},
	},
	StageArea: {
		{Label: "до 40 м²", Value: "0:40"},
		{Label: "40-66 м²", Value: "40:66"},
		{Label: "67-85 м²", Value: "67:85"},
		{Label: "85-105 м²", Value: "85:105"},
		{Label: "105-130 м²", Value: "105:130"},
		{Label: "131-160 м²", Value: "131:160"},
		{Label: "161-200 м²", Value: "161:200"},
		{Label: "более 200 м²", Value: "200:"},
	},
	StageRooms: {
		{Label: "1", Value: "1"},
		{Label: "2", Value: "2"},
		{Label: "3", Value: "3"},
		{Label: "4", Value: "4"},
		{Label: "5+", Value: "5"},
	},
	StagePrice: {
		{Label: "до 70 000 $", Value: "0:70000"},
		{Label: "70-100 000 $", Value: "70000:100000"},
		{Label: "100-150 000 $", Value: "100000:150000"},
		{Label: "150-200 000 $", Value: "150000:200000"},
		{Label: "более 200 000 $", Value: "200000:"},
	},
}

func init() {
	for _, d := range Districts {
		options[StageDistrict] = append(options[StageDistrict], Option{Label: d, Value: d})
	}
}

// Options returns the selectable values of a facet stage, nil otherwise.
func Options(s Stage) []Option {
	return options[s]
}

// Selected reports whether value is currently chosen for the stage's facet.
// The any value is selected when the facet is marked as any.
func Selected(f model.FilterSet, s Stage, value string) bool {
	switch s {
	case StageType:
		return selected(f.Type.Values, f.Type.Any, value)
	case StageDistrict:
		return selected(f.District.Values, f.District.Any, value)
	case StageCondition:
		return selected(f.Condition.Values, f.Condition.Any, value)
	case StageRooms:
		if value == AnyValue {
			return f.Rooms.Any
		}
		n, err := strconv.Atoi(value)
		return err == nil && slices.Contains(f.Rooms.Values, n)
	case StageArea:
		return selected(f.Area.Ranges, f.Area.Any, value)
	case StagePrice:
		return selected(f.Price.Ranges, f.Price.Any, value)
	}
	return false
}

func selected(values []string, anySet bool, value string) bool {
	if value == AnyValue {
		return anySet
	}
	return slices.Contains(values, value)
}
