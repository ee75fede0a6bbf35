// Package main provides the entry point for the dataset-tools CLI.
//
// dataset-tools turns rendered images and their binary masks into training
// datasets (COCO JSON, YOLO polygon labels), prepares the inputs those
// conversions need, and drives Blender, YOLO and Detectron2.
//
// Usage:
//
//	dataset-tools coco --images train/images --masks train/masks --output train.json
//	dataset-tools yolo --images train/images --masks train/masks --labels train/labels
//
// See --help for all available commands.
package main

func main() {
	Execute()
}
