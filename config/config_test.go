/*
DESCRIPTION
  config_test.go provides testing for the Config struct methods (Validate and Update).

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

import "testing"

// dumbLogger discards everything; good enough for Validate's defaulting
// path to have somewhere to log to during tests.
type dumbLogger struct{}

func (dumbLogger) SetLevel(l int8)                        {}
func (dumbLogger) Log(l int8, m string, a ...interface{}) {}
func (dumbLogger) Debug(msg string, args ...interface{})   {}
func (dumbLogger) Info(msg string, args ...interface{})    {}
func (dumbLogger) Warning(msg string, args ...interface{}) {}
func (dumbLogger) Error(msg string, args ...interface{})   {}
func (dumbLogger) Fatal(msg string, args ...interface{})   {}

func validConfig() Config {
	return Config{
		FrameWidth:  100,
		FrameHeight: 100,
		Margin:      2,
		Padding:     3,
		DataBoxSizeStep: [3]int{
			Data: 2, Meta: 8, Pre: 8,
		},
		PickFrameToRead:       [3]int{Data: 1, Meta: 1, Pre: 1},
		TotalFramesRepetition: [3]int{Data: 1, Meta: 1, Pre: 1},
		ColorThresholdPercent: 10,
		Logger:                dumbLogger{},
	}
}

func TestValidateDefaultsSoftFields(t *testing.T) {
	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if c.FramesPerContentPartFile != defaultFramesPerContentPartFile {
		t.Errorf("FramesPerContentPartFile = %d, want default %d", c.FramesPerContentPartFile, defaultFramesPerContentPartFile)
	}
	if c.OutputFPS != defaultOutputFPS {
		t.Errorf("OutputFPS = %d, want default %d", c.OutputFPS, defaultOutputFPS)
	}
	if c.RAMThresholdTriggerBytes != defaultRAMThresholdTrigger {
		t.Errorf("RAMThresholdTriggerBytes = %d, want default %d", c.RAMThresholdTriggerBytes, defaultRAMThresholdTrigger)
	}
}

func TestValidateRejectsBadBoxStep(t *testing.T) {
	c := validConfig()
	c.DataBoxSizeStep[Data] = 0
	if err := c.Validate(); err == nil {
		t.Error("expected error for box step 0")
	}
}

func TestValidateRejectsZeroRepetition(t *testing.T) {
	c := validConfig()
	c.TotalFramesRepetition[Meta] = 0
	if err := c.Validate(); err == nil {
		t.Error("expected error for total_frames_repetition = 0")
	}
}

func TestValidateRejectsPickExceedingRepeat(t *testing.T) {
	c := validConfig()
	c.PickFrameToRead[Pre] = 2
	c.TotalFramesRepetition[Pre] = 1
	if err := c.Validate(); err == nil {
		t.Error("expected error for pick_frame_to_read > total_frames_repetition")
	}
}

func TestUpdateAppliesByName(t *testing.T) {
	c := validConfig()
	c.Update(map[string]string{
		KeyFrameWidth:    "640",
		KeyOutputFPS:     "30",
		KeyEncodingSpeed: "7",
	})
	if c.FrameWidth != 640 {
		t.Errorf("FrameWidth = %d, want 640", c.FrameWidth)
	}
	if c.OutputFPS != 30 {
		t.Errorf("OutputFPS = %d, want 30", c.OutputFPS)
	}
	if c.EncodingSpeed != 7 {
		t.Errorf("EncodingSpeed = %d, want 7", c.EncodingSpeed)
	}
}
