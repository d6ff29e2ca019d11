package main

import (
	"testing"

	"github.com/arnavshah/staff-planner-api/pkg/models"
	"github.com/stretchr/testify/require"
)

func TestManualFlag(t *testing.T) {
	m := manualFlag{}
	require.NoError(t, m.Set("Lena = PX/Fahrer"))
	require.NoError(t, m.Set("Tom=Wilde Maus/Einlass"))
	require.Equal(t, models.Slot{Facility: "PX", Position: "Fahrer"}, m["Lena"])
	require.Equal(t, models.Slot{Facility: "Wilde Maus", Position: "Einlass"}, m["Tom"])

	require.Error(t, m.Set("Lena"))
	require.Error(t, m.Set("Lena=PX"))
}

func TestListFlag(t *testing.T) {
	var l listFlag
	require.NoError(t, l.Set("Lena, Tom"))
	require.NoError(t, l.Set("Mia;Lena"))
	require.Equal(t, listFlag{"Lena", "Tom", "Mia", "Lena"}, l)
}
