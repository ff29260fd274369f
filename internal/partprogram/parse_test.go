package partprogram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `<?xml version="1.0" encoding="UTF-8"?>
<PartProgram>
  <PanelDimensions>
    <Name>BOK_L</Name>
    <Description>Left side panel</Description>
    <Width>560.5</Width>
    <Height>720</Height>
    <Thickness>18</Thickness>
  </PanelDimensions>
  <Parameter>
    <Name>LX</Name>
    <Value>560,5</Value>
    <Description>Cabinet width</Description>
    <ValueFormatted>560,5</ValueFormatted>
    <SortID>1</SortID>
  </Parameter>
  <Parameter>
    <Name>DVIRKA</Name>
    <Value>1</Value>
    <Description>Door yes=1/no=0</Description>
    <ValueFormatted>1</ValueFormatted>
    <SortID>2</SortID>
  </Parameter>
  <Parameter>
    <Value>99</Value>
    <Description>orphan block without a name</Description>
  </Parameter>
  <Parameter>
    <Name>LX</Name>
    <Value>111</Value>
    <Description>duplicate of LX</Description>
    <ValueFormatted>111</ValueFormatted>
    <SortID>notanumber</SortID>
  </Parameter>
  <Machining>
    <ID>1</ID>
    <Type>B</Type>
    <X>32,5</X>
    <Y>64</Y>
    <Z>0</Z>
    <Diameter>5</Diameter>
    <Depth>12</Depth>
    <Plane>XY</Plane>
  </Machining>
  <Machining>
    <ID>2</ID>
    <Type>B</Type>
    <X>96</X>
    <Y>64</Y>
  </Machining>
  <Machining>
    <ID>3</ID>
    <X>1</X>
  </Machining>
</PartProgram>
`

func TestParsePanel(t *testing.T) {
	panel := ParsePanel(sampleDoc)
	require.NotNil(t, panel)
	assert.Equal(t, "BOK_L", panel.Name)
	assert.Equal(t, "Left side panel", panel.Description)
	assert.Equal(t, 560.5, panel.Width)
	assert.Equal(t, 720.0, panel.Height)
	assert.Equal(t, 18.0, panel.Thickness)
}

func TestParsePanelMissingBlock(t *testing.T) {
	assert.Nil(t, ParsePanel("<PartProgram></PartProgram>"))
}

func TestParsePanelMissingNumericField(t *testing.T) {
	doc := `<PanelDimensions><Name>A</Name><Width>10</Width><Height>20</Height></PanelDimensions>`
	assert.Nil(t, ParsePanel(doc), "absent thickness must yield nil, not a partial panel")
}

func TestParseParameters(t *testing.T) {
	params := ParseParameters(sampleDoc)
	require.Len(t, params, 3, "nameless block is skipped, duplicate is kept")

	assert.Equal(t, "LX", params[0].Name)
	assert.Equal(t, "560,5", params[0].Value)
	assert.Equal(t, "560,5", params[0].ValueFormatted)
	assert.Equal(t, "Cabinet width", params[0].Description)
	assert.Equal(t, 1, params[0].SortID)

	assert.Equal(t, "DVIRKA", params[1].Name)

	// Duplicate LX stays in parse output; dedup is the classifier's job.
	assert.Equal(t, "LX", params[2].Name)
	assert.Equal(t, "111", params[2].Value)
	assert.Equal(t, 0, params[2].SortID, "unparseable sort id defaults to 0")
}

func TestParseOperations(t *testing.T) {
	ops := ParseOperations(sampleDoc)
	require.Len(t, ops, 2, "block without a kind code is skipped")

	assert.Equal(t, 1, ops[0].ID)
	assert.Equal(t, "B", ops[0].Kind)
	assert.Equal(t, 32.5, ops[0].X, "locale comma is normalized on parse")
	assert.Equal(t, 5.0, ops[0].Diameter)
	assert.Equal(t, 12.0, ops[0].Depth)
	require.NotNil(t, ops[0].Plane)
	assert.Equal(t, "XY", *ops[0].Plane)
	assert.Nil(t, ops[0].Reference, "absent reference stays nil")

	assert.Equal(t, 0.0, ops[1].Diameter, "absent diameter defaults to 0")
	assert.Equal(t, 0.0, ops[1].Depth)
	assert.Nil(t, ops[1].Plane)
}

func TestParseDocument(t *testing.T) {
	doc := Parse(sampleDoc)
	require.NotNil(t, doc.Panel)
	assert.Len(t, doc.Parameters, 3)
	assert.Len(t, doc.Operations, 2)
}
