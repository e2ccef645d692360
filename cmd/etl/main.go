// Command etl loads the climate CSV into the star-schema warehouse and serves
// reports over it.
//
// Usage:
//
//	etl load data/categorical_data_and_dimensions.csv
//	etl report --html charts.html
//	etl export --out export/
//	etl serve
package main

func main() {
	Execute()
}
