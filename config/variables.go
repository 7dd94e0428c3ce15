/*
DESCRIPTION
  variables.go contains a list of structs that provide a variable Name, type
  in a string format, a function for updating the variable in the Config
  struct from a string, and finally, a validation function to check the
  validity of the corresponding field value in the Config.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package config

import "strconv"

// Config map Keys.
const (
	KeyFrameWidth                = "FrameWidth"
	KeyFrameHeight               = "FrameHeight"
	KeyMargin                    = "Margin"
	KeyPadding                   = "Padding"
	KeyColorThresholdPercent     = "ColorThresholdPercent"
	KeyFramesPerContentPartFile  = "FramesPerContentPartFile"
	KeyOutputFPS                 = "OutputFPS"
	KeyEncodingSpeed             = "EncodingSpeed"
	KeyLengthOfDigitsToRepresent = "LengthOfDigitsToRepresentSize"
	KeyDataFolderDecoded         = "DataFolderDecoded"
	KeyRAMThresholdTriggerBytes  = "RAMThresholdTriggerBytes"
	KeyRAMThresholdResumeBytes   = "RAMThresholdResumeBytes"
)

// Config map parameter types.
const (
	typeInt    = "int"
	typeUint   = "uint"
	typeFloat  = "float"
	typeString = "string"
)

// Default variable values.
const (
	defaultFrameWidth               = 1280
	defaultFrameHeight              = 720
	defaultMargin                   = 10
	defaultPadding                  = 10
	defaultColorThresholdPercent    = 10.0
	defaultFramesPerContentPartFile = 1000
	defaultOutputFPS                = 25
	defaultEncodingSpeed            = 5
	defaultLengthOfDigits           = 8
	defaultDataFolderDecoded        = "."
	defaultRAMThresholdTrigger      = 512 * 1024 * 1024  // 512 MiB.
	defaultRAMThresholdResume       = 1024 * 1024 * 1024 // 1 GiB.
)

// Variables describes every soft-defaultable Config field: how to parse an
// update for it from a string, and how to validate (and default) it.
// Fields with a hard failure mode (box step range, pick vs repeat,
// repetition count) are checked directly in Config.Validate
// instead, since those abort the run rather than silently default.
var Variables = []struct {
	Name     string
	Type     string
	Update   func(*Config, string)
	Validate func(*Config)
}{
	{
		Name: KeyFrameWidth,
		Type: typeInt,
		Update: func(c *Config, v string) {
			if n, err := strconv.Atoi(v); err == nil {
				c.FrameWidth = n
			}
		},
		Validate: func(c *Config) {
			if c.FrameWidth <= 0 {
				c.LogInvalidField(KeyFrameWidth, defaultFrameWidth)
				c.FrameWidth = defaultFrameWidth
			}
		},
	},
	{
		Name: KeyFrameHeight,
		Type: typeInt,
		Update: func(c *Config, v string) {
			if n, err := strconv.Atoi(v); err == nil {
				c.FrameHeight = n
			}
		},
		Validate: func(c *Config) {
			if c.FrameHeight <= 0 {
				c.LogInvalidField(KeyFrameHeight, defaultFrameHeight)
				c.FrameHeight = defaultFrameHeight
			}
		},
	},
	{
		Name: KeyMargin,
		Type: typeInt,
		Update: func(c *Config, v string) {
			if n, err := strconv.Atoi(v); err == nil {
				c.Margin = n
			}
		},
		Validate: func(c *Config) {
			if c.Margin < 0 {
				c.LogInvalidField(KeyMargin, defaultMargin)
				c.Margin = defaultMargin
			}
		},
	},
	{
		Name: KeyPadding,
		Type: typeInt,
		Update: func(c *Config, v string) {
			if n, err := strconv.Atoi(v); err == nil {
				c.Padding = n
			}
		},
		Validate: func(c *Config) {
			if c.Padding < 0 {
				c.LogInvalidField(KeyPadding, defaultPadding)
				c.Padding = defaultPadding
			}
		},
	},
	{
		Name: KeyColorThresholdPercent,
		Type: typeFloat,
		Update: func(c *Config, v string) {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				c.ColorThresholdPercent = f
			}
		},
		Validate: func(c *Config) {
			if c.ColorThresholdPercent < 0 || c.ColorThresholdPercent > 100 {
				c.LogInvalidField(KeyColorThresholdPercent, defaultColorThresholdPercent)
				c.ColorThresholdPercent = defaultColorThresholdPercent
			}
		},
	},
	{
		Name: KeyFramesPerContentPartFile,
		Type: typeInt,
		Update: func(c *Config, v string) {
			if n, err := strconv.Atoi(v); err == nil {
				c.FramesPerContentPartFile = n
			}
		},
		Validate: func(c *Config) {
			if c.FramesPerContentPartFile <= 0 {
				c.LogInvalidField(KeyFramesPerContentPartFile, defaultFramesPerContentPartFile)
				c.FramesPerContentPartFile = defaultFramesPerContentPartFile
			}
		},
	},
	{
		Name: KeyOutputFPS,
		Type: typeInt,
		Update: func(c *Config, v string) {
			if n, err := strconv.Atoi(v); err == nil {
				c.OutputFPS = n
			}
		},
		Validate: func(c *Config) {
			if c.OutputFPS <= 0 {
				c.LogInvalidField(KeyOutputFPS, defaultOutputFPS)
				c.OutputFPS = defaultOutputFPS
			}
		},
	},
	{
		Name: KeyEncodingSpeed,
		Type: typeInt,
		Update: func(c *Config, v string) {
			if n, err := strconv.Atoi(v); err == nil {
				c.EncodingSpeed = n
			}
		},
		Validate: func(c *Config) {
			if c.EncodingSpeed < 1 || c.EncodingSpeed > 9 {
				c.LogInvalidField(KeyEncodingSpeed, defaultEncodingSpeed)
				c.EncodingSpeed = defaultEncodingSpeed
			}
		},
	},
	{
		Name: KeyLengthOfDigitsToRepresent,
		Type: typeInt,
		Update: func(c *Config, v string) {
			if n, err := strconv.Atoi(v); err == nil {
				c.LengthOfDigitsToRepresentSize = n
			}
		},
		Validate: func(c *Config) {
			if c.LengthOfDigitsToRepresentSize <= 0 {
				c.LogInvalidField(KeyLengthOfDigitsToRepresent, defaultLengthOfDigits)
				c.LengthOfDigitsToRepresentSize = defaultLengthOfDigits
			}
		},
	},
	{
		Name: KeyDataFolderDecoded,
		Type: typeString,
		Update: func(c *Config, v string) {
			c.DataFolderDecoded = v
		},
		Validate: func(c *Config) {
			if c.DataFolderDecoded == "" {
				c.LogInvalidField(KeyDataFolderDecoded, defaultDataFolderDecoded)
				c.DataFolderDecoded = defaultDataFolderDecoded
			}
		},
	},
	{
		Name: KeyRAMThresholdTriggerBytes,
		Type: typeUint,
		Update: func(c *Config, v string) {
			if n, err := strconv.ParseUint(v, 10, 64); err == nil {
				c.RAMThresholdTriggerBytes = n
			}
		},
		Validate: func(c *Config) {
			if c.RAMThresholdTriggerBytes == 0 {
				c.LogInvalidField(KeyRAMThresholdTriggerBytes, defaultRAMThresholdTrigger)
				c.RAMThresholdTriggerBytes = defaultRAMThresholdTrigger
			}
		},
	},
	{
		Name: KeyRAMThresholdResumeBytes,
		Type: typeUint,
		Update: func(c *Config, v string) {
			if n, err := strconv.ParseUint(v, 10, 64); err == nil {
				c.RAMThresholdResumeBytes = n
			}
		},
		Validate: func(c *Config) {
			if c.RAMThresholdResumeBytes <= c.RAMThresholdTriggerBytes {
				c.LogInvalidField(KeyRAMThresholdResumeBytes, defaultRAMThresholdResume)
				c.RAMThresholdResumeBytes = defaultRAMThresholdResume
			}
		},
	},
}
