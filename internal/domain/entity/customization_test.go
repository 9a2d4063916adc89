package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyMergesOptionsKeyWise(t *testing.T) {
	data := CustomizationData{Options: map[string]string{"wood": "teak", "finish": "matte"}}

	data.Apply(CustomizationPatch{Options: map[string]string{"finish": "gloss", "handle": "brass"}})

	assert.Equal(t, "teak", data.Options["wood"])
	assert.Equal(t, "gloss", data.Options["finish"])
	assert.Equal(t, "brass", data.Options["handle"])
}

func TestApplyLeavesNilFieldsUntouched(t *testing.T) {
	quantity := 3
	notes := "rounded corners"
	data := CustomizationData{Quantity: &quantity, Notes: &notes}

	price := 120.0
	data.Apply(CustomizationPatch{Price: &price})

	assert.Equal(t, 3, *data.Quantity)
	assert.Equal(t, "rounded corners", *data.Notes)
	assert.Equal(t, 120.0, *data.Price)
}

func TestApplyReplacesDimensionsWholesale(t *testing.T) {
	data := CustomizationData{Dimensions: &Dimensions{Width: 100, Height: 50, Unit: "cm"}}

	data.Apply(CustomizationPatch{Dimensions: &Dimensions{Width: 120, Height: 60, Unit: "cm"}})

	assert.Equal(t, 120.0, data.Dimensions.Width)
	assert.Equal(t, 60.0, data.Dimensions.Height)
}

func TestPatchIsEmpty(t *testing.T) {
	assert.True(t, CustomizationPatch{}.IsEmpty())

	deadline := time.Now()
	assert.False(t, CustomizationPatch{Deadline: &deadline}.IsEmpty())

	status := CustomizationStatusPending
	assert.False(t, CustomizationPatch{Status: &status}.IsEmpty())
}

func TestValidCustomizationStatus(t *testing.T) {
	assert.True(t, ValidCustomizationStatus(CustomizationStatusQuoteSent))
	assert.False(t, ValidCustomizationStatus("shipped"))
	assert.False(t, ValidCustomizationStatus(""))
}
