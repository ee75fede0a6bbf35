// Package framework drives the two external training frameworks used on the
// generated datasets: the ultralytics YOLO command line and Detectron2
// through an embedded Python driver.
//
// Nothing here imports a machine learning library. The package prepares
// inputs (data.yaml, dataset dicts, run configuration), builds the command and
// hands it to the runner package.
package framework
